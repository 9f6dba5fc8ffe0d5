package ikev2

import "fmt"

// IKEv2 RFC 7296 常量

// 载荷类型
type PayloadType uint8

const (
	NoNextPayload     PayloadType = 0
	SA                PayloadType = 33
	KE                PayloadType = 34
	IDi               PayloadType = 35
	IDr               PayloadType = 36
	CERT              PayloadType = 37
	CERTREQ           PayloadType = 38
	AUTH              PayloadType = 39
	NiNr              PayloadType = 40
	N                 PayloadType = 41
	D                 PayloadType = 42
	V                 PayloadType = 43
	TSI               PayloadType = 44
	TSR               PayloadType = 45
	SK                PayloadType = 46
	CP                PayloadType = 47
	EAP               PayloadType = 48
	EncryptedFragment PayloadType = 53 // RFC 7383
)

func (t PayloadType) String() string {
	switch t {
	case NoNextPayload:
		return "NONE"
	case SA:
		return "SA"
	case KE:
		return "KE"
	case IDi:
		return "IDi"
	case IDr:
		return "IDr"
	case CERT:
		return "CERT"
	case CERTREQ:
		return "CERTREQ"
	case AUTH:
		return "AUTH"
	case NiNr:
		return "Nonce"
	case N:
		return "N"
	case D:
		return "D"
	case V:
		return "V"
	case TSI:
		return "TSi"
	case TSR:
		return "TSr"
	case SK:
		return "SK"
	case CP:
		return "CP"
	case EAP:
		return "EAP"
	case EncryptedFragment:
		return "SKF"
	default:
		return fmt.Sprintf("PayloadType(%d)", uint8(t))
	}
}

// 协议 ID
type ProtocolID uint8

const (
	ProtoIKE ProtocolID = 1
	ProtoAH  ProtocolID = 2
	ProtoESP ProtocolID = 3
)

func (p ProtocolID) String() string {
	switch p {
	case ProtoIKE:
		return "IKE"
	case ProtoAH:
		return "AH"
	case ProtoESP:
		return "ESP"
	default:
		return fmt.Sprintf("ProtocolID(%d)", uint8(p))
	}
}

// 变换类型
type TransformType uint8

const (
	TransformTypeEncr  TransformType = 1
	TransformTypePRF   TransformType = 2
	TransformTypeInteg TransformType = 3
	TransformTypeDH    TransformType = 4
	TransformTypeESN   TransformType = 5
)

func (t TransformType) String() string {
	switch t {
	case TransformTypeEncr:
		return "ENCR"
	case TransformTypePRF:
		return "PRF"
	case TransformTypeInteg:
		return "INTEG"
	case TransformTypeDH:
		return "DH"
	case TransformTypeESN:
		return "ESN"
	default:
		return fmt.Sprintf("TransformType(%d)", uint8(t))
	}
}

type AlgorithmType uint16

// 变换类型 1 - 加密算法变换 ID
const (
	ENCR_DES_IV64   AlgorithmType = 1
	ENCR_DES        AlgorithmType = 2
	ENCR_3DES       AlgorithmType = 3
	ENCR_RC5        AlgorithmType = 4
	ENCR_IDEA       AlgorithmType = 5
	ENCR_CAST       AlgorithmType = 6
	ENCR_BLOWFISH   AlgorithmType = 7
	ENCR_3IDEA      AlgorithmType = 8
	ENCR_DES_IV32   AlgorithmType = 9
	ENCR_NULL       AlgorithmType = 11
	ENCR_AES_CBC    AlgorithmType = 12
	ENCR_AES_CTR    AlgorithmType = 13
	ENCR_AES_CCM_8  AlgorithmType = 14
	ENCR_AES_CCM_12 AlgorithmType = 15
	ENCR_AES_CCM_16 AlgorithmType = 16
	ENCR_AES_GCM_8  AlgorithmType = 18
	ENCR_AES_GCM_12 AlgorithmType = 19
	ENCR_AES_GCM_16 AlgorithmType = 20
)

// 变换类型 2 - 伪随机函数变换 ID
const (
	PRF_HMAC_MD5      AlgorithmType = 1
	PRF_HMAC_SHA1     AlgorithmType = 2
	PRF_HMAC_TIGER    AlgorithmType = 3
	PRF_AES128_XCBC   AlgorithmType = 4
	PRF_HMAC_SHA2_256 AlgorithmType = 5
	PRF_HMAC_SHA2_384 AlgorithmType = 6
	PRF_HMAC_SHA2_512 AlgorithmType = 7
	PRF_AES128_CMAC   AlgorithmType = 8
)

// 变换类型 3 - 完整性算法变换 ID
const (
	AUTH_NONE              AlgorithmType = 0
	AUTH_HMAC_MD5_96       AlgorithmType = 1
	AUTH_HMAC_SHA1_96      AlgorithmType = 2
	AUTH_DES_MAC           AlgorithmType = 3
	AUTH_KPDK_MD5          AlgorithmType = 4
	AUTH_AES_XCBC_96       AlgorithmType = 5
	AUTH_HMAC_MD5_128      AlgorithmType = 6
	AUTH_HMAC_SHA1_160     AlgorithmType = 7
	AUTH_AES_CMAC_96       AlgorithmType = 8
	AUTH_AES_128_GMAC      AlgorithmType = 9
	AUTH_AES_192_GMAC      AlgorithmType = 10
	AUTH_AES_256_GMAC      AlgorithmType = 11
	AUTH_HMAC_SHA2_256_128 AlgorithmType = 12
	AUTH_HMAC_SHA2_384_192 AlgorithmType = 13
	AUTH_HMAC_SHA2_512_256 AlgorithmType = 14
)

// 变换类型 4 - Diffie-Hellman 组变换 ID
const (
	MODP_768_bit  AlgorithmType = 1
	MODP_1024_bit AlgorithmType = 2
	MODP_1536_bit AlgorithmType = 5
	MODP_2048_bit AlgorithmType = 14
	MODP_3072_bit AlgorithmType = 15
	MODP_4096_bit AlgorithmType = 16
	MODP_6144_bit AlgorithmType = 17
	MODP_8192_bit AlgorithmType = 18
)

// 变换类型 5 - 扩展序列号
const (
	ESN_NONE AlgorithmType = 0
	ESN_USE  AlgorithmType = 1
)

// 属性类型
const (
	AttributeKeyLength uint16 = 14
)

// 子结构头部的 Last Substructure 字段
const (
	lastSubstructure uint8 = 0
	moreProposals    uint8 = 2
	moreTransforms   uint8 = 3
)
