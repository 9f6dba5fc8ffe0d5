package wire

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
)

// Parser 在一段字节流上按规则表依次解码子结构
type Parser struct {
	s     cryptobyte.String
	total int
}

func NewParser(data []byte) *Parser {
	return &Parser{s: cryptobyte.String(data), total: len(data)}
}

// Offset 已消费的字节数
func (p *Parser) Offset() int { return p.total - len(p.s) }

// Remaining 剩余未解码的字节数
func (p *Parser) Remaining() int { return len(p.s) }

// Parse 从当前位置解码一个完整的子结构，成功后游标前进到该结构之后。
// 失败时游标不动。
func (p *Parser) Parse(st Structure) error {
	n, err := parseStructure(p.s, st)
	if err != nil {
		return errors.Wrapf(err, "偏移 %d", p.Offset())
	}
	p.s.Skip(n)
	return nil
}

// Parse 从 data 开头解码 st，返回消费的字节数
func Parse(data []byte, st Structure) (int, error) {
	return parseStructure(cryptobyte.String(data), st)
}

type bitReader struct {
	s     cryptobyte.String
	size  int
	cur   uint8
	avail int // cur 中尚未消费的位数

	bounded bool
}

func (r *bitReader) consumed() int { return r.size - len(r.s) }

func (r *bitReader) aligned() bool { return r.avail == 0 }

func parseStructure(data cryptobyte.String, st Structure) (int, error) {
	r := &bitReader{s: data, size: len(data)}
	for _, rule := range st.Rules() {
		if err := r.decode(rule); err != nil {
			return 0, err
		}
	}
	if !r.aligned() {
		return 0, errors.Wrapf(ErrRuleTable, "结构结束时剩余 %d 位未对齐", r.avail)
	}
	if r.bounded && len(r.s) != 0 {
		return 0, errors.Wrapf(ErrMalformed, "声明长度内剩余 %d 字节未解析", len(r.s))
	}
	return r.consumed(), nil
}

func (r *bitReader) decode(rule Rule) error {
	switch rule.Kind {
	case KindUint, KindComputed:
		v, err := r.readBits(rule.Bits)
		if err != nil {
			return errors.Wrapf(err, "字段 %s", rule.Name)
		}
		if !store(rule.ptr, v) {
			return errors.Wrapf(ErrRuleTable, "字段 %s 的存储类型 %T 不支持", rule.Name, rule.ptr)
		}

	case KindFlag:
		v, err := r.readBits(1)
		if err != nil {
			return errors.Wrapf(err, "字段 %s", rule.Name)
		}
		if !store(rule.ptr, v) {
			return errors.Wrapf(ErrRuleTable, "字段 %s 的存储类型 %T 不支持", rule.Name, rule.ptr)
		}

	case KindReserved:
		if _, err := r.readBits(rule.Bits); err != nil {
			return errors.Wrapf(err, "字段 %s", rule.Name)
		}

	case KindLength:
		if !r.aligned() {
			return errors.Wrapf(ErrRuleTable, "长度字段 %s 未按字节对齐", rule.Name)
		}
		v, err := r.readBits(16)
		if err != nil {
			return errors.Wrapf(err, "字段 %s", rule.Name)
		}
		if !store(rule.ptr, v) {
			return errors.Wrapf(ErrRuleTable, "字段 %s 的存储类型 %T 不支持", rule.Name, rule.ptr)
		}
		declared := int(v)
		used := r.consumed()
		if declared < used {
			return errors.Wrapf(ErrMalformed, "%s = %d 小于已解析的头部 %d", rule.Name, declared, used)
		}
		if declared-used > len(r.s) {
			return errors.Wrapf(ErrMalformed, "%s = %d 超出可用数据 %d", rule.Name, declared, used+len(r.s))
		}
		// 之后的字段只能在声明长度内读取
		r.s = r.s[:declared-used]
		r.size = declared
		r.bounded = true

	case KindChunk:
		if !r.aligned() {
			return errors.Wrapf(ErrRuleTable, "字段 %s 未按字节对齐", rule.Name)
		}
		n := rule.size()
		var b []byte
		if n < 0 || !r.s.ReadBytes(&b, n) {
			return errors.Wrapf(ErrMalformed, "字段 %s 需要 %d 字节，剩余 %d", rule.Name, n, len(r.s))
		}
		*rule.chunk = append([]byte(nil), b...)

	case KindList:
		if !r.aligned() {
			return errors.Wrapf(ErrRuleTable, "列表 %s 未按字节对齐", rule.Name)
		}
		if !r.bounded {
			return errors.Wrapf(ErrRuleTable, "列表 %s 之前没有长度字段", rule.Name)
		}
		for i := 0; len(r.s) > 0; i++ {
			child := rule.list.New()
			n, err := parseStructure(r.s, child)
			if err != nil {
				return errors.Wrapf(err, "%s[%d]", rule.Name, i)
			}
			if n == 0 {
				return errors.Wrapf(ErrMalformed, "%s[%d] 长度为零", rule.Name, i)
			}
			r.s.Skip(n)
			rule.list.Append(child)
		}

	default:
		return errors.Wrapf(ErrRuleTable, "未知规则类型 %d", rule.Kind)
	}
	return nil
}

func (r *bitReader) readBits(n int) (uint32, error) {
	if n <= 0 || n > 32 {
		return 0, errors.Wrapf(ErrRuleTable, "位宽 %d 无效", n)
	}
	if r.aligned() {
		switch n {
		case 8:
			var v uint8
			if !r.s.ReadUint8(&v) {
				return 0, errors.Wrap(ErrMalformed, "数据被截断")
			}
			return uint32(v), nil
		case 16:
			var v uint16
			if !r.s.ReadUint16(&v) {
				return 0, errors.Wrap(ErrMalformed, "数据被截断")
			}
			return uint32(v), nil
		case 32:
			var v uint32
			if !r.s.ReadUint32(&v) {
				return 0, errors.Wrap(ErrMalformed, "数据被截断")
			}
			return v, nil
		}
	}

	var v uint32
	for n > 0 {
		if r.avail == 0 {
			if !r.s.ReadUint8(&r.cur) {
				return 0, errors.Wrap(ErrMalformed, "数据被截断")
			}
			r.avail = 8
		}
		take := min(n, r.avail)
		bits := (uint32(r.cur) >> (r.avail - take)) & (1<<take - 1)
		v = v<<take | bits
		r.avail -= take
		n -= take
	}
	return v, nil
}
