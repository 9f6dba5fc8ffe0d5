package driver

import (
	"fmt"

	"github.com/iniwex5/ikesa/pkg/ikev2"
	"github.com/iniwex5/netlink"
	"go.uber.org/multierr"
)

// IKEv2 算法 ID → Linux XFRM 内核算法名称的映射

// XFRMCryptAlgo 加密算法描述
type XFRMCryptAlgo struct {
	Name    string // 内核算法名称 (如 "cbc(aes)")
	KeyBits int    // 密钥位数 (不含 salt)
}

// XFRMAuthAlgo 完整性算法描述
type XFRMAuthAlgo struct {
	Name         string // 内核算法名称 (如 "hmac(sha256)")
	KeyBits      int
	TruncateBits int // ICV 长度
}

// XFRMAeadAlgo AEAD 算法描述
type XFRMAeadAlgo struct {
	Name    string // 内核算法名称 (如 "rfc4106(gcm(aes))")
	KeyBits int    // 含 salt
	ICVBits int
}

// IKEv2AlgToXFRMCrypt 仅用于非 AEAD 算法，keyLenBits 为 0 时按 AES-128 处理
func IKEv2AlgToXFRMCrypt(alg ikev2.AlgorithmType, keyLenBits int) (*XFRMCryptAlgo, error) {
	if keyLenBits == 0 {
		keyLenBits = 128
	}

	switch alg {
	case ikev2.ENCR_AES_CBC:
		return &XFRMCryptAlgo{Name: "cbc(aes)", KeyBits: keyLenBits}, nil
	case ikev2.ENCR_AES_CTR:
		// 内核密钥末尾附带 4 字节 nonce
		return &XFRMCryptAlgo{Name: "rfc3686(ctr(aes))", KeyBits: keyLenBits}, nil
	case ikev2.ENCR_3DES:
		return &XFRMCryptAlgo{Name: "cbc(des3_ede)", KeyBits: 192}, nil
	case ikev2.ENCR_NULL:
		return &XFRMCryptAlgo{Name: "ecb(cipher_null)", KeyBits: 0}, nil
	default:
		return nil, fmt.Errorf("不支持的 XFRM 加密算法 ID: %d", alg)
	}
}

func IKEv2AlgToXFRMAuth(alg ikev2.AlgorithmType) (*XFRMAuthAlgo, error) {
	switch alg {
	case ikev2.AUTH_HMAC_MD5_96:
		return &XFRMAuthAlgo{Name: "hmac(md5)", KeyBits: 128, TruncateBits: 96}, nil
	case ikev2.AUTH_HMAC_SHA1_96:
		return &XFRMAuthAlgo{Name: "hmac(sha1)", KeyBits: 160, TruncateBits: 96}, nil
	case ikev2.AUTH_AES_XCBC_96:
		return &XFRMAuthAlgo{Name: "xcbc(aes)", KeyBits: 128, TruncateBits: 96}, nil
	case ikev2.AUTH_HMAC_SHA2_256_128:
		return &XFRMAuthAlgo{Name: "hmac(sha256)", KeyBits: 256, TruncateBits: 128}, nil
	case ikev2.AUTH_HMAC_SHA2_384_192:
		return &XFRMAuthAlgo{Name: "hmac(sha384)", KeyBits: 384, TruncateBits: 192}, nil
	case ikev2.AUTH_HMAC_SHA2_512_256:
		return &XFRMAuthAlgo{Name: "hmac(sha512)", KeyBits: 512, TruncateBits: 256}, nil
	default:
		return nil, fmt.Errorf("不支持的 XFRM 完整性算法 ID: %d", alg)
	}
}

// IKEv2AlgToXFRMAead keyLenBits 是加密密钥位数 (不含 salt)；内核需要的 key = encKey + salt
func IKEv2AlgToXFRMAead(alg ikev2.AlgorithmType, keyLenBits int) (*XFRMAeadAlgo, error) {
	if keyLenBits == 0 {
		keyLenBits = 128
	}

	switch alg {
	case ikev2.ENCR_AES_GCM_8:
		return &XFRMAeadAlgo{Name: "rfc4106(gcm(aes))", KeyBits: keyLenBits + 32, ICVBits: 64}, nil
	case ikev2.ENCR_AES_GCM_12:
		return &XFRMAeadAlgo{Name: "rfc4106(gcm(aes))", KeyBits: keyLenBits + 32, ICVBits: 96}, nil
	case ikev2.ENCR_AES_GCM_16:
		return &XFRMAeadAlgo{Name: "rfc4106(gcm(aes))", KeyBits: keyLenBits + 32, ICVBits: 128}, nil
	case ikev2.ENCR_AES_CCM_8:
		return &XFRMAeadAlgo{Name: "rfc4309(ccm(aes))", KeyBits: keyLenBits + 24, ICVBits: 64}, nil
	case ikev2.ENCR_AES_CCM_12:
		return &XFRMAeadAlgo{Name: "rfc4309(ccm(aes))", KeyBits: keyLenBits + 24, ICVBits: 96}, nil
	case ikev2.ENCR_AES_CCM_16:
		return &XFRMAeadAlgo{Name: "rfc4309(ccm(aes))", KeyBits: keyLenBits + 24, ICVBits: 128}, nil
	default:
		return nil, fmt.Errorf("不支持的 XFRM AEAD 算法 ID: %d", alg)
	}
}

// XFRMProto 协议 ID → XFRM 协议号，IKE 提议不能安装到内核
func XFRMProto(proto ikev2.ProtocolID) (netlink.Proto, error) {
	switch proto {
	case ikev2.ProtoESP:
		return netlink.XFRM_PROTO_ESP, nil
	case ikev2.ProtoAH:
		return netlink.XFRM_PROTO_AH, nil
	default:
		return 0, fmt.Errorf("协议 %s 没有对应的 XFRM 协议", proto)
	}
}

// XFRMAlgos 协商结果对应的内核算法模板，Key 字段留空由密钥派生后填充
type XFRMAlgos struct {
	Proto netlink.Proto

	Aead        *netlink.XfrmStateAlgo
	AeadKeyBits int

	Crypt        *netlink.XfrmStateAlgo
	CryptKeyBits int
	Auth         *netlink.XfrmStateAlgo
	AuthKeyBits  int

	ESN bool
}

// AlgosFromMatch 把 Child SA 的匹配结果转换为 XFRM 算法模板。
// 非 AEAD 时加密和完整性算法分别检查，所有不支持的算法一并报告
func AlgosFromMatch(m *ikev2.MatchedAlgorithms) (*XFRMAlgos, error) {
	proto, err := XFRMProto(m.ProtocolID)
	if err != nil {
		return nil, err
	}
	algos := &XFRMAlgos{Proto: proto, ESN: m.ESN}

	if proto == netlink.XFRM_PROTO_ESP && ikev2.IsAEAD(m.Encr) {
		aead, err := IKEv2AlgToXFRMAead(m.Encr, int(m.EncrKeyLen))
		if err != nil {
			return nil, err
		}
		algos.Aead = &netlink.XfrmStateAlgo{Name: aead.Name, ICVLen: aead.ICVBits}
		algos.AeadKeyBits = aead.KeyBits
		return algos, nil
	}

	var errs error
	if proto == netlink.XFRM_PROTO_ESP {
		crypt, err := IKEv2AlgToXFRMCrypt(m.Encr, int(m.EncrKeyLen))
		errs = multierr.Append(errs, err)
		if err == nil {
			algos.Crypt = &netlink.XfrmStateAlgo{Name: crypt.Name}
			algos.CryptKeyBits = crypt.KeyBits
		}
	}
	auth, err := IKEv2AlgToXFRMAuth(m.Integ)
	errs = multierr.Append(errs, err)
	if err == nil {
		algos.Auth = &netlink.XfrmStateAlgo{Name: auth.Name, TruncateLen: auth.TruncateBits}
		algos.AuthKeyBits = auth.KeyBits
	}
	if errs != nil {
		return nil, errs
	}
	return algos, nil
}
