package ikev2

import "github.com/pkg/errors"

// IKEProposal 一个完整指定的 IKE 提议，供密钥派生/加密层使用。
// 与 SA 载荷树没有任何引用关系
type IKEProposal struct {
	EncryptionAlgorithm           AlgorithmType
	EncryptionAlgorithmKeyLength  uint16
	IntegrityAlgorithm            AlgorithmType
	IntegrityAlgorithmKeyLength   uint16
	PseudoRandomFunction          AlgorithmType
	PseudoRandomFunctionKeyLength uint16
	DiffieHellmanGroup            AlgorithmType
}

// 一个 IKE 提议恰好包含 ENCR、PRF、INTEG、DH 四个变换
const ikeProposalTransforms = 4

// NewSAPayloadFromIKEProposals 为每条记录创建一个 IKE 提议，编号从 1 开始
func NewSAPayloadFromIKEProposals(records []IKEProposal) *SAPayload {
	sa := NewSAPayload()
	for i, rec := range records {
		prop := NewProposal(uint8(i+1), ProtoIKE, nil)
		prop.AddTransformWithKeyLen(TransformTypeEncr, rec.EncryptionAlgorithm, rec.EncryptionAlgorithmKeyLength)
		prop.AddTransformWithKeyLen(TransformTypePRF, rec.PseudoRandomFunction, rec.PseudoRandomFunctionKeyLength)
		prop.AddTransformWithKeyLen(TransformTypeInteg, rec.IntegrityAlgorithm, rec.IntegrityAlgorithmKeyLength)
		prop.AddTransform(NewTransform(TransformTypeDH, rec.DiffieHellmanGroup))
		sa.AddProposal(prop)
	}
	return sa
}

// IKEProposals 提取全部 IKE 提议，顺序与载荷中的顺序一致。
//
// 第一遍检查每个 IKE 提议的变换数量和 SPI 并计数，第二遍填充结果；
// 任何一个 IKE 提议不完整都会使整个调用失败，不返回部分结果。
// 载荷中没有 IKE 提议时返回 ErrNotFound
func (p *SAPayload) IKEProposals() ([]IKEProposal, error) {
	found := 0
	for _, prop := range p.proposals {
		if prop.ProtocolID() != ProtoIKE {
			continue
		}
		if prop.TransformCount() != ikeProposalTransforms {
			return nil, errors.Wrapf(ErrMalformedIKEProposal,
				"提议 %d 包含 %d 个变换", prop.Number(), prop.TransformCount())
		}
		if prop.SPISize() != 0 {
			return nil, errors.Wrapf(ErrMalformedIKEProposal,
				"提议 %d 的 SPI 长度为 %d", prop.Number(), prop.SPISize())
		}
		found++
	}
	if found == 0 {
		return nil, ErrNotFound
	}

	out := make([]IKEProposal, found)
	i := 0
	for _, prop := range p.proposals {
		if prop.ProtocolID() != ProtoIKE {
			continue
		}
		if err := out[i].fill(prop); err != nil {
			return nil, err
		}
		i++
	}
	return out, nil
}

func (rec *IKEProposal) fill(prop *Proposal) error {
	var encrFound, integFound, prfFound, dhFound bool

	for t := range prop.Transforms(true) {
		keyLen, _ := t.KeyLength()
		switch t.Type() {
		case TransformTypeEncr:
			rec.EncryptionAlgorithm = t.ID()
			rec.EncryptionAlgorithmKeyLength = keyLen
			encrFound = true
		case TransformTypeInteg:
			rec.IntegrityAlgorithm = t.ID()
			rec.IntegrityAlgorithmKeyLength = keyLen
			integFound = true
		case TransformTypePRF:
			rec.PseudoRandomFunction = t.ID()
			rec.PseudoRandomFunctionKeyLength = keyLen
			prfFound = true
		case TransformTypeDH:
			rec.DiffieHellmanGroup = t.ID()
			dhFound = true
		default:
			// 不属于 IKE 提议的变换
		}
	}

	switch {
	case !encrFound:
		return errors.Wrapf(ErrMalformedIKEProposal, "提议 %d 缺少 %s 变换", prop.Number(), TransformTypeEncr)
	case !integFound:
		return errors.Wrapf(ErrMalformedIKEProposal, "提议 %d 缺少 %s 变换", prop.Number(), TransformTypeInteg)
	case !prfFound:
		return errors.Wrapf(ErrMalformedIKEProposal, "提议 %d 缺少 %s 变换", prop.Number(), TransformTypePRF)
	case !dhFound:
		return errors.Wrapf(ErrMalformedIKEProposal, "提议 %d 缺少 %s 变换", prop.Number(), TransformTypeDH)
	}
	return nil
}
