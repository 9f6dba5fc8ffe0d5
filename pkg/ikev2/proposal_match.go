package ikev2

import (
	"slices"

	"github.com/iniwex5/ikesa/pkg/logger"
)

// ProposalMatcher 用于多提议协商
// 根据本地支持的算法列表，从对端的 SA 载荷中选择第一个可接受的提议
type ProposalMatcher struct {
	// 支持的加密算法 (按优先级排序)
	SupportedEncr []AlgorithmType
	// 支持的完整性算法
	SupportedInteg []AlgorithmType
	// 支持的 PRF 算法
	SupportedPRF []AlgorithmType
	// 支持的 DH 组
	SupportedDH []AlgorithmType
}

// DefaultProposalMatcher 返回默认的算法优先级 (类似于 strongSwan default proposals)
func DefaultProposalMatcher() *ProposalMatcher {
	return &ProposalMatcher{
		SupportedEncr: []AlgorithmType{
			ENCR_AES_GCM_16,
			ENCR_AES_GCM_12,
			ENCR_AES_GCM_8,
			ENCR_AES_CCM_16,
			ENCR_AES_CBC,
			ENCR_AES_CTR,
			ENCR_3DES,
		},
		SupportedInteg: []AlgorithmType{
			AUTH_NONE, // AEAD 不需要独立完整性
			AUTH_HMAC_SHA2_512_256,
			AUTH_HMAC_SHA2_384_192,
			AUTH_HMAC_SHA2_256_128,
			AUTH_AES_XCBC_96,
			AUTH_HMAC_SHA1_96,
		},
		SupportedPRF: []AlgorithmType{
			PRF_HMAC_SHA2_512,
			PRF_HMAC_SHA2_384,
			PRF_HMAC_SHA2_256,
			PRF_AES128_XCBC,
			PRF_HMAC_SHA1,
		},
		SupportedDH: []AlgorithmType{
			MODP_4096_bit,
			MODP_3072_bit,
			MODP_2048_bit,
			MODP_1536_bit,
			MODP_1024_bit,
		},
	}
}

// MatchedAlgorithms 匹配结果
type MatchedAlgorithms struct {
	ProposalNum uint8
	ProtocolID  ProtocolID
	SPI         []byte
	Encr        AlgorithmType
	EncrKeyLen  uint16 // 从属性中获取
	Integ       AlgorithmType
	PRF         AlgorithmType
	DH          AlgorithmType
	ESN         bool
}

// SelectBestProposal 按载荷顺序返回第一个可接受的提议，没有则返回 ErrNotFound
func (pm *ProposalMatcher) SelectBestProposal(sa *SAPayload) (*MatchedAlgorithms, error) {
	for prop := range sa.Proposals(true) {
		if matched := pm.matchProposal(prop); matched != nil {
			logger.Debug("选中提议",
				logger.Uint8("number", prop.Number()),
				logger.String("protocol", prop.ProtocolID().String()))
			return matched, nil
		}
	}
	return nil, ErrNotFound
}

func (pm *ProposalMatcher) matchProposal(prop *Proposal) *MatchedAlgorithms {
	result := &MatchedAlgorithms{
		ProposalNum: prop.Number(),
		ProtocolID:  prop.ProtocolID(),
		SPI:         append([]byte(nil), prop.SPI()...),
	}

	var encrFound, integFound, prfFound, dhFound bool

	for t := range prop.Transforms(true) {
		switch t.Type() {
		case TransformTypeEncr:
			if !encrFound && slices.Contains(pm.SupportedEncr, t.ID()) {
				result.Encr = t.ID()
				result.EncrKeyLen, _ = t.KeyLength()
				encrFound = true
			}
		case TransformTypeInteg:
			if !integFound && slices.Contains(pm.SupportedInteg, t.ID()) {
				result.Integ = t.ID()
				integFound = true
			}
		case TransformTypePRF:
			if !prfFound && slices.Contains(pm.SupportedPRF, t.ID()) {
				result.PRF = t.ID()
				prfFound = true
			}
		case TransformTypeDH:
			if !dhFound && slices.Contains(pm.SupportedDH, t.ID()) {
				result.DH = t.ID()
				dhFound = true
			}
		case TransformTypeESN:
			if t.ID() == ESN_USE {
				result.ESN = true
			}
		}
	}

	// IKE SA 需要: ENCR, PRF, (非 AEAD 时 INTEG), DH
	// Child SA (ESP) 需要: ENCR, (非 AEAD 时 INTEG)
	switch prop.ProtocolID() {
	case ProtoIKE:
		if encrFound && prfFound && dhFound && (IsAEAD(result.Encr) || integFound) {
			return result
		}
	case ProtoESP:
		if encrFound && (IsAEAD(result.Encr) || integFound) {
			return result
		}
	}
	return nil
}

// IsAEAD 判断加密算法是否自带完整性保护
func IsAEAD(encr AlgorithmType) bool {
	switch encr {
	case ENCR_AES_GCM_8, ENCR_AES_GCM_12, ENCR_AES_GCM_16,
		ENCR_AES_CCM_8, ENCR_AES_CCM_12, ENCR_AES_CCM_16:
		return true
	default:
		return false
	}
}

// NewIKEProposalsPayload 创建涵盖高、中、低兼容级别的 IKE 提议
func NewIKEProposalsPayload(spi []byte) *SAPayload {
	sa := NewSAPayload()

	// 提议 1: 高安全组 (AES-GCM-256 + SHA384 + DH15)
	prop := NewProposal(1, ProtoIKE, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_GCM_16, 256)
	prop.AddTransformWithKeyLen(TransformTypePRF, PRF_HMAC_SHA2_384, 0)
	prop.AddTransformWithKeyLen(TransformTypeDH, MODP_3072_bit, 0)
	sa.AddProposal(prop)

	// 提议 2: 主流安全组 (AES-GCM-128 + SHA256 + DH14) - VoWiFi 常用
	prop = NewProposal(2, ProtoIKE, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_GCM_16, 128)
	prop.AddTransformWithKeyLen(TransformTypePRF, PRF_HMAC_SHA2_256, 0)
	prop.AddTransformWithKeyLen(TransformTypeDH, MODP_2048_bit, 0)
	sa.AddProposal(prop)

	// 提议 3: 传统高安全组 (AES-CBC-256 + SHA256 + DH14)
	prop = NewProposal(3, ProtoIKE, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_CBC, 256)
	prop.AddTransformWithKeyLen(TransformTypeInteg, AUTH_HMAC_SHA2_256_128, 0)
	prop.AddTransformWithKeyLen(TransformTypePRF, PRF_HMAC_SHA2_256, 0)
	prop.AddTransformWithKeyLen(TransformTypeDH, MODP_2048_bit, 0)
	sa.AddProposal(prop)

	// 提议 4: 远古兜底兼容组 (AES-CBC-128 + SHA1 + DH2)
	prop = NewProposal(4, ProtoIKE, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_CBC, 128)
	prop.AddTransformWithKeyLen(TransformTypeInteg, AUTH_HMAC_SHA1_96, 0)
	prop.AddTransformWithKeyLen(TransformTypePRF, PRF_HMAC_SHA1, 0)
	prop.AddTransformWithKeyLen(TransformTypeDH, MODP_1024_bit, 0)
	sa.AddProposal(prop)

	return sa
}

// NewESPProposalsPayload 创建 Child SA 使用的 ESP 提议
func NewESPProposalsPayload(spi []byte) *SAPayload {
	sa := NewSAPayload()

	// 提议 1: 高安全 (AES-GCM-256)
	prop := NewProposal(1, ProtoESP, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_GCM_16, 256)
	prop.AddTransformWithKeyLen(TransformTypeESN, ESN_NONE, 0)
	sa.AddProposal(prop)

	// 提议 2: 主流安全 (AES-GCM-128)
	prop = NewProposal(2, ProtoESP, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_GCM_16, 128)
	prop.AddTransformWithKeyLen(TransformTypeESN, ESN_NONE, 0)
	sa.AddProposal(prop)

	// 提议 3: 传统主流 (AES-CBC-128 + SHA256)
	prop = NewProposal(3, ProtoESP, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_CBC, 128)
	prop.AddTransformWithKeyLen(TransformTypeInteg, AUTH_HMAC_SHA2_256_128, 0)
	prop.AddTransformWithKeyLen(TransformTypeESN, ESN_NONE, 0)
	sa.AddProposal(prop)

	// 提议 4: 远古兜底兼容组 (AES-CBC-128 + SHA1)
	prop = NewProposal(4, ProtoESP, spi)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_CBC, 128)
	prop.AddTransformWithKeyLen(TransformTypeInteg, AUTH_HMAC_SHA1_96, 0)
	prop.AddTransformWithKeyLen(TransformTypeESN, ESN_NONE, 0)
	sa.AddProposal(prop)

	return sa
}
