package ikev2

import (
	"github.com/iniwex5/ikesa/pkg/ikev2/wire"
)

// Transform 子结构 (RFC 7296 3.3.2 节)
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	| Last Substruc |   RESERVED    |        Transform Length       |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|Transform Type |   RESERVED    |          Transform ID         |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	~                      Transform Attributes                     ~
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type Transform struct {
	last            uint8
	transformLength uint16
	transformType   TransformType
	transformID     AlgorithmType
	attributes      []*TransformAttribute
}

const TRANSFORM_HEADER_LEN = 8

func NewTransform(tType TransformType, tID AlgorithmType) *Transform {
	t := &Transform{
		last:          lastSubstructure,
		transformType: tType,
		transformID:   tID,
	}
	t.transformLength = uint16(t.Length())
	return t
}

// NewTransformWithKeyLen 创建带密钥长度属性的变换 (例如 AES-CBC)。
// keyLen 为 0 时不附加属性
func NewTransformWithKeyLen(tType TransformType, tID AlgorithmType, keyLen uint16) *Transform {
	t := NewTransform(tType, tID)
	if keyLen != 0 {
		t.attributes = append(t.attributes, NewAttributeTV(AttributeKeyLength, keyLen))
		t.transformLength = uint16(t.Length())
	}
	return t
}

func (t *Transform) Type() TransformType { return t.transformType }
func (t *Transform) ID() AlgorithmType   { return t.transformID }
func (t *Transform) IsLast() bool        { return t.last == lastSubstructure }

// 仅由所属的 Proposal 调用
func (t *Transform) setLast(last bool) {
	if last {
		t.last = lastSubstructure
	} else {
		t.last = moreTransforms
	}
}

// KeyLength 返回密钥长度属性，没有该属性时 ok 为 false
func (t *Transform) KeyLength() (keyLen uint16, ok bool) {
	for _, attr := range t.attributes {
		if attr.IsTV() && attr.Type() == AttributeKeyLength {
			return attr.Value(), true
		}
	}
	return 0, false
}

func (t *Transform) Attributes() []*TransformAttribute {
	return t.attributes
}

// Verify 变换本身没有解码之外的约束
func (t *Transform) Verify() error { return nil }

func (t *Transform) Length() int {
	n := TRANSFORM_HEADER_LEN
	for _, attr := range t.attributes {
		n += attr.Length()
	}
	return n
}

func (t *Transform) Rules() []wire.Rule {
	return []wire.Rule{
		wire.Uint8("last substructure", &t.last),
		wire.Reserved("reserved", 8),
		wire.Length("transform length", &t.transformLength),
		wire.Uint8("transform type", (*uint8)(&t.transformType)),
		wire.Reserved("reserved", 8),
		wire.Uint16("transform id", (*uint16)(&t.transformID)),
		wire.Nested("transform attributes", (*attributeList)(&t.attributes)),
	}
}

type transformList []*Transform

func (l *transformList) Len() int                { return len(*l) }
func (l *transformList) At(i int) wire.Structure { return (*l)[i] }
func (l *transformList) New() wire.Structure     { return &Transform{} }
func (l *transformList) Append(s wire.Structure) { *l = append(*l, s.(*Transform)) }

// Transform 属性 (RFC 7296 3.3.5 节)
//
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|A|       Attribute Type        |    AF=0  Attribute Length     |
//	|F|                             |    AF=1  Attribute Value      |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                   AF=0  Attribute Value                       |
//	|                   AF=1  Not Transmitted                       |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type TransformAttribute struct {
	tv            bool // AF 位: 1 = TV 格式, 0 = TLV 格式
	attrType      uint16
	lengthOrValue uint16
	value         []byte // 仅 TLV
}

const ATTRIBUTE_HEADER_LEN = 4

// NewAttributeTV 值固定为 2 字节的属性，例如密钥长度
func NewAttributeTV(attrType uint16, val uint16) *TransformAttribute {
	return &TransformAttribute{tv: true, attrType: attrType & 0x7FFF, lengthOrValue: val}
}

// NewAttributeTLV 变长属性
func NewAttributeTLV(attrType uint16, value []byte) *TransformAttribute {
	return &TransformAttribute{
		attrType:      attrType & 0x7FFF,
		lengthOrValue: uint16(len(value)),
		value:         append([]byte(nil), value...),
	}
}

func (a *TransformAttribute) IsTV() bool   { return a.tv }
func (a *TransformAttribute) Type() uint16 { return a.attrType }

// Value TV 格式的属性值
func (a *TransformAttribute) Value() uint16 {
	if a.tv {
		return a.lengthOrValue
	}
	return 0
}

// Data TLV 格式的属性值
func (a *TransformAttribute) Data() []byte { return a.value }

func (a *TransformAttribute) Length() int {
	if a.tv {
		return ATTRIBUTE_HEADER_LEN
	}
	return ATTRIBUTE_HEADER_LEN + len(a.value)
}

func (a *TransformAttribute) Rules() []wire.Rule {
	return []wire.Rule{
		wire.Flag("attribute format", &a.tv),
		wire.Bits("attribute type", 15, &a.attrType),
		wire.Computed16("attribute length or value", &a.lengthOrValue, func() uint32 {
			if a.tv {
				return uint32(a.lengthOrValue)
			}
			return uint32(len(a.value))
		}),
		wire.Chunk("attribute value", &a.value, func() int {
			if a.tv {
				return 0
			}
			return int(a.lengthOrValue)
		}),
	}
}

type attributeList []*TransformAttribute

func (l *attributeList) Len() int                { return len(*l) }
func (l *attributeList) At(i int) wire.Structure { return (*l)[i] }
func (l *attributeList) New() wire.Structure     { return &TransformAttribute{} }
func (l *attributeList) Append(s wire.Structure) { *l = append(*l, s.(*TransformAttribute)) }
