package wire

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// item: | tag(8) | F | 15-bit code | len(16) | data... |
type item struct {
	tag    uint8
	flag   bool
	code   uint16
	length uint16
	data   []byte
}

func (i *item) Length() int { return 5 + len(i.data) }

func (i *item) Rules() []Rule {
	return []Rule{
		Uint8("tag", &i.tag),
		Flag("flag", &i.flag),
		Bits("code", 15, &i.code),
		Computed16("data length", &i.length, func() uint32 { return uint32(len(i.data)) }),
		Chunk("data", &i.data, func() int { return int(i.length) }),
	}
}

type itemList []*item

func (l *itemList) Len() int           { return len(*l) }
func (l *itemList) At(i int) Structure { return (*l)[i] }
func (l *itemList) New() Structure     { return &item{} }
func (l *itemList) Append(s Structure) { *l = append(*l, s.(*item)) }

// container: | id(32) | R(4) | kind(4) | R(8) | length(16) | items... |
type container struct {
	id     uint32
	kind   uint16
	length uint16
	items  []*item
}

func (c *container) Length() int {
	n := 8
	for _, it := range c.items {
		n += it.Length()
	}
	return n
}

func (c *container) Rules() []Rule {
	return []Rule{
		Uint32("id", &c.id),
		Reserved("reserved", 4),
		Bits("kind", 4, &c.kind),
		Reserved("reserved", 8),
		Length("length", &c.length),
		Nested("items", (*itemList)(&c.items)),
	}
}

func TestParseBitFields(t *testing.T) {
	raw := []byte{
		0xde, 0xad, 0xbe, 0xef, // id
		0xf5,       // reserved (ignored) + kind 5
		0xff,       // reserved (ignored)
		0x00, 0x13, // length 19
		0x07, 0x80, 0x0e, 0x00, 0x00, // tag 7, flag, code 14, no data
		0x01, 0x12, 0x34, 0x00, 0x01, 0xaa, // tag 1, code 0x1234, one byte
	}

	var c container
	n, err := Parse(raw, &c)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, uint32(0xdeadbeef), c.id)
	assert.Equal(t, uint16(5), c.kind)
	require.Len(t, c.items, 2)

	assert.Equal(t, uint8(7), c.items[0].tag)
	assert.True(t, c.items[0].flag)
	assert.Equal(t, uint16(14), c.items[0].code)
	assert.Empty(t, c.items[0].data)

	assert.Equal(t, uint8(1), c.items[1].tag)
	assert.False(t, c.items[1].flag)
	assert.Equal(t, uint16(0x1234), c.items[1].code)
	assert.Equal(t, []byte{0xaa}, c.items[1].data)
}

func TestGenerateWritesReservedAsZero(t *testing.T) {
	c := &container{
		id:   1,
		kind: 0xa,
		items: []*item{
			{tag: 2, flag: true, code: 0x7fff, data: []byte{1, 2}},
		},
	}

	out, err := Generate(c)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x01,
		0x0a,
		0x00,
		0x00, 0x0f,
		0x02, 0xff, 0xff, 0x00, 0x02, 0x01, 0x02,
	}, out)
	assert.Equal(t, uint16(15), c.length)
	assert.Equal(t, uint16(2), c.items[0].length)
}

func TestRoundTrip(t *testing.T) {
	c := &container{
		id:   42,
		kind: 3,
		items: []*item{
			{tag: 1, code: 100},
			{tag: 2, flag: true, code: 200, data: []byte("hello")},
			{tag: 3, code: 300, data: []byte{0}},
		},
	}
	out, err := Generate(c)
	require.NoError(t, err)

	var back container
	n, err := Parse(out, &back)
	require.NoError(t, err)
	assert.Equal(t, len(out), n)

	again, err := Generate(&back)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestParseMalformed(t *testing.T) {
	valid := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x01, 0x00,
		0x00, 0x0d,
		0x02, 0x00, 0x01, 0x00, 0x00,
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", valid[:6]},
		{"length shorter than header", append(append([]byte{}, valid[:6]...), 0x00, 0x04)},
		{"length beyond buffer", valid[:12]},
		{"child overruns parent", func() []byte {
			b := append([]byte{}, valid...)
			b[12] = 0x05 // data length 5 with no data
			return b
		}()},
		{"trailing bytes inside length", func() []byte {
			b := append([]byte{}, valid...)
			b[7] = 0x0e
			return append(b, 0x09)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c container
			_, err := Parse(tt.data, &c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "unexpected error: %v", err)
		})
	}
}

func TestParseFailureKeepsOwnerConsistent(t *testing.T) {
	raw := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x01, 0x00,
		0x00, 0x12,
		0x02, 0x00, 0x01, 0x00, 0x00, // complete item
		0x03, 0x00, 0x02, 0x00, 0x03, // item claims 3 data bytes, none left
	}
	var c container
	_, err := Parse(raw, &c)
	require.Error(t, err)
	// 只有完整解码的子结构会被追加
	require.Len(t, c.items, 1)
	assert.Equal(t, uint8(2), c.items[0].tag)
}

func TestParserAdvances(t *testing.T) {
	first := &container{id: 1, items: []*item{{tag: 1}}}
	second := &container{id: 2}
	a, err := Generate(first)
	require.NoError(t, err)
	b, err := Generate(second)
	require.NoError(t, err)

	p := NewParser(append(a, b...))
	var c1, c2 container
	require.NoError(t, p.Parse(&c1))
	assert.Equal(t, len(a), p.Offset())
	require.NoError(t, p.Parse(&c2))
	assert.Equal(t, 0, p.Remaining())
	assert.Equal(t, uint32(1), c1.id)
	assert.Equal(t, uint32(2), c2.id)

	var c3 container
	require.Error(t, p.Parse(&c3))
	assert.Equal(t, len(a)+len(b), p.Offset())
}

func TestGenerateRejectsOverflow(t *testing.T) {
	c := &container{id: 1, kind: 0x10}
	_, err := Generate(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleTable))
}

type noLength struct{ items []*item }

func (n *noLength) Length() int { return 0 }
func (n *noLength) Rules() []Rule {
	return []Rule{Nested("items", (*itemList)(&n.items))}
}

func TestListRequiresLength(t *testing.T) {
	_, err := Parse([]byte{0x01, 0x00, 0x00, 0x00, 0x00}, &noLength{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleTable))
}
