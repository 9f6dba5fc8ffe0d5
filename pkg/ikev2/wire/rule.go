// Package wire 实现 IKEv2 载荷共用的声明式编码规则引擎。
//
// 每个子结构用一张规则表描述自己的线上格式：规则按线上顺序排列，
// 每条规则绑定到结构体中的一个字段。Parser 按规则表解码字节流，
// Generate 按同一张表生成字节流。引擎本身不了解任何载荷语义。
package wire

// Kind 规则类型
type Kind uint8

const (
	// KindUint 定宽无符号整数 (8/16/32 位，或 1..32 位的打包字段)
	KindUint Kind = iota
	// KindFlag 单个标志位
	KindFlag
	// KindReserved 保留位：解码时跳过不检查，编码时写零
	KindReserved
	// KindLength 16 位长度字段：解码时限定当前结构的边界，编码时取 Structure.Length()
	KindLength
	// KindComputed 派生字段：解码时保存，编码时由其他字段计算
	KindComputed
	// KindChunk 变长字节串，长度来自之前的字段
	KindChunk
	// KindList 嵌套子结构列表，直到当前结构的声明长度耗尽
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindFlag:
		return "flag"
	case KindReserved:
		return "reserved"
	case KindLength:
		return "length"
	case KindComputed:
		return "computed"
	case KindChunk:
		return "chunk"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Structure 可以由规则表编解码的子结构
type Structure interface {
	// Rules 返回绑定到当前对象字段的规则表
	Rules() []Rule
	// Length 返回编码后的总字节数 (每次调用都重新计算)
	Length() int
}

// List 嵌套子结构序列
type List interface {
	Len() int
	At(i int) Structure
	// New 创建一个空的子结构供解码填充
	New() Structure
	// Append 在子结构完整解码后追加
	Append(s Structure)
}

// Rule 规则表中的一项
type Rule struct {
	Name string
	Kind Kind
	Bits int

	ptr   any // *uint8, *uint16, *uint32 或 *bool
	chunk *[]byte
	size  func() int
	value func() uint32
	list  List
}

func Uint8(name string, p *uint8) Rule {
	return Rule{Name: name, Kind: KindUint, Bits: 8, ptr: p}
}

func Uint16(name string, p *uint16) Rule {
	return Rule{Name: name, Kind: KindUint, Bits: 16, ptr: p}
}

func Uint32(name string, p *uint32) Rule {
	return Rule{Name: name, Kind: KindUint, Bits: 32, ptr: p}
}

// Bits 不足 16 位的打包字段，例如属性类型 (15 位)
func Bits(name string, n int, p *uint16) Rule {
	return Rule{Name: name, Kind: KindUint, Bits: n, ptr: p}
}

func Flag(name string, p *bool) Rule {
	return Rule{Name: name, Kind: KindFlag, Bits: 1, ptr: p}
}

func Reserved(name string, n int) Rule {
	return Rule{Name: name, Kind: KindReserved, Bits: n}
}

// Length 16 位载荷/子结构长度，p 保存最近一次解码或编码的值
func Length(name string, p *uint16) Rule {
	return Rule{Name: name, Kind: KindLength, Bits: 16, ptr: p}
}

func Computed8(name string, p *uint8, fn func() uint32) Rule {
	return Rule{Name: name, Kind: KindComputed, Bits: 8, ptr: p, value: fn}
}

func Computed16(name string, p *uint16, fn func() uint32) Rule {
	return Rule{Name: name, Kind: KindComputed, Bits: 16, ptr: p, value: fn}
}

// Chunk 变长字节串。size 只在解码时使用，编码时写出 *p 的全部内容
func Chunk(name string, p *[]byte, size func() int) Rule {
	return Rule{Name: name, Kind: KindChunk, chunk: p, size: size}
}

func Nested(name string, l List) Rule {
	return Rule{Name: name, Kind: KindList, list: l}
}

func store(ptr any, v uint32) bool {
	switch p := ptr.(type) {
	case *uint8:
		*p = uint8(v)
	case *uint16:
		*p = uint16(v)
	case *uint32:
		*p = v
	case *bool:
		*p = v != 0
	default:
		return false
	}
	return true
}

func load(ptr any) (uint32, bool) {
	switch p := ptr.(type) {
	case *uint8:
		return uint32(*p), true
	case *uint16:
		return uint32(*p), true
	case *uint32:
		return *p, true
	case *bool:
		if *p {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
