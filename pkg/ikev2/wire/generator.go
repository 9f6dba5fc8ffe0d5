package wire

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
)

// Generate 按规则表把 st 编码为字节流。
// 输出缓冲区按 st.Length() 一次性分配，实际写出的长度必须与之相等。
func Generate(st Structure) ([]byte, error) {
	n := st.Length()
	w := &bitWriter{b: cryptobyte.NewFixedBuilder(make([]byte, 0, n))}
	if err := w.structure(st); err != nil {
		return nil, err
	}
	out, err := w.b.Bytes()
	if err != nil {
		return nil, errors.Wrapf(ErrRuleTable, "生成失败 (声明长度 %d): %v", n, err)
	}
	if len(out) != n {
		return nil, errors.Wrapf(ErrRuleTable, "生成 %d 字节，声明长度 %d", len(out), n)
	}
	return out, nil
}

type bitWriter struct {
	b    *cryptobyte.Builder
	cur  uint8
	used int // cur 中已写入的位数
}

func (w *bitWriter) aligned() bool { return w.used == 0 }

func (w *bitWriter) structure(st Structure) error {
	for _, rule := range st.Rules() {
		if err := w.encode(st, rule); err != nil {
			return err
		}
	}
	if !w.aligned() {
		return errors.Wrapf(ErrRuleTable, "结构结束时剩余 %d 位未对齐", w.used)
	}
	return nil
}

func (w *bitWriter) encode(st Structure, rule Rule) error {
	switch rule.Kind {
	case KindUint, KindFlag:
		v, ok := load(rule.ptr)
		if !ok {
			return errors.Wrapf(ErrRuleTable, "字段 %s 的存储类型 %T 不支持", rule.Name, rule.ptr)
		}
		return w.field(rule, v)

	case KindReserved:
		return w.field(rule, 0)

	case KindLength:
		if !w.aligned() {
			return errors.Wrapf(ErrRuleTable, "长度字段 %s 未按字节对齐", rule.Name)
		}
		v := uint32(st.Length())
		if !store(rule.ptr, v) {
			return errors.Wrapf(ErrRuleTable, "字段 %s 的存储类型 %T 不支持", rule.Name, rule.ptr)
		}
		return w.field(rule, v)

	case KindComputed:
		v := rule.value()
		if !store(rule.ptr, v) {
			return errors.Wrapf(ErrRuleTable, "字段 %s 的存储类型 %T 不支持", rule.Name, rule.ptr)
		}
		return w.field(rule, v)

	case KindChunk:
		if !w.aligned() {
			return errors.Wrapf(ErrRuleTable, "字段 %s 未按字节对齐", rule.Name)
		}
		w.b.AddBytes(*rule.chunk)

	case KindList:
		if !w.aligned() {
			return errors.Wrapf(ErrRuleTable, "列表 %s 未按字节对齐", rule.Name)
		}
		for i := 0; i < rule.list.Len(); i++ {
			if err := w.structure(rule.list.At(i)); err != nil {
				return errors.Wrapf(err, "%s[%d]", rule.Name, i)
			}
		}

	default:
		return errors.Wrapf(ErrRuleTable, "未知规则类型 %d", rule.Kind)
	}
	return nil
}

func (w *bitWriter) field(rule Rule, v uint32) error {
	n := rule.Bits
	if n <= 0 || n > 32 {
		return errors.Wrapf(ErrRuleTable, "字段 %s 位宽 %d 无效", rule.Name, n)
	}
	if n < 32 && v>>n != 0 {
		return errors.Wrapf(ErrRuleTable, "字段 %s 的值 %d 超出 %d 位", rule.Name, v, n)
	}
	w.writeBits(v, n)
	return nil
}

func (w *bitWriter) writeBits(v uint32, n int) {
	if w.aligned() {
		switch n {
		case 8:
			w.b.AddUint8(uint8(v))
			return
		case 16:
			w.b.AddUint16(uint16(v))
			return
		case 32:
			w.b.AddUint32(v)
			return
		}
	}
	for n > 0 {
		take := min(n, 8-w.used)
		bits := (v >> (n - take)) & (1<<take - 1)
		w.cur |= uint8(bits << (8 - w.used - take))
		w.used += take
		n -= take
		if w.used == 8 {
			w.b.AddUint8(w.cur)
			w.cur, w.used = 0, 0
		}
	}
}
