package ikev2

import (
	"slices"
	"testing"

	"github.com/iniwex5/ikesa/pkg/ikev2/wire"
	"github.com/iniwex5/ikesa/pkg/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type saPayloadTestSuite struct {
	suite.Suite
	logs *observer.ObservedLogs
	prev *zap.Logger
}

func (s *saPayloadTestSuite) SetupTest() {
	core, logs := observer.New(zapcore.DebugLevel)
	s.prev = logger.Get()
	s.logs = logs
	logger.SetLogger(zap.New(core))
}

func (s *saPayloadTestSuite) TearDownTest() {
	logger.SetLogger(s.prev)
}

func espProposal(num uint8) *Proposal {
	prop := NewProposal(num, ProtoESP, []byte{0xc0, 0xff, 0xee, 0x01})
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_CBC, 128)
	prop.AddTransform(NewTransform(TransformTypeInteg, AUTH_HMAC_SHA2_256_128))
	prop.AddTransform(NewTransform(TransformTypeESN, ESN_NONE))
	return prop
}

func payloadWithNumbers(nums ...uint8) *SAPayload {
	sa := NewSAPayload()
	for _, n := range nums {
		sa.AddProposal(espProposal(n))
	}
	return sa
}

func (s *saPayloadTestSuite) TestEncodeLayout() {
	prop := NewProposal(1, ProtoIKE, nil)
	prop.AddTransformWithKeyLen(TransformTypeEncr, ENCR_AES_CBC, 128)
	sa := NewSAPayload()
	sa.AddProposal(prop)

	raw, err := sa.Encode()
	s.Require().NoError(err)
	s.Equal([]byte{
		0x00, 0x00, 0x00, 0x18, // SA 头部
		0x00, 0x00, 0x00, 0x14, 0x01, 0x01, 0x00, 0x01, // 提议头部
		0x00, 0x00, 0x00, 0x0c, 0x01, 0x00, 0x00, 0x0c, // 变换头部
		0x80, 0x0e, 0x00, 0x80, // Key Length = 128 (TV)
	}, raw)
}

func (s *saPayloadTestSuite) TestRoundTrip() {
	sa := payloadWithNumbers(1, 2)
	sa.SetNextType(KE)
	raw, err := sa.Encode()
	s.Require().NoError(err)

	dec, n, err := DecodeSAPayload(raw)
	s.Require().NoError(err)
	s.Equal(len(raw), n)
	s.Equal(KE, dec.NextType())
	s.False(dec.Critical())
	s.Equal(2, dec.ProposalCount())
	s.NoError(dec.Verify())

	again, err := dec.Encode()
	s.Require().NoError(err)
	s.Equal(raw, again)

	prop := slices.Collect(dec.Proposals(true))[1]
	s.Equal(uint8(2), prop.Number())
	s.Equal(ProtoESP, prop.ProtocolID())
	s.Equal([]byte{0xc0, 0xff, 0xee, 0x01}, prop.SPI())
	s.Equal(3, prop.TransformCount())

	encr := slices.Collect(prop.Transforms(true))[0]
	keyLen, ok := encr.KeyLength()
	s.True(ok)
	s.Equal(uint16(128), keyLen)
}

func (s *saPayloadTestSuite) TestDecodeLeavesFollowingPayload() {
	raw, err := payloadWithNumbers(1).Encode()
	s.Require().NoError(err)

	_, n, err := DecodeSAPayload(append(raw, 0x28, 0x00, 0x00, 0x08))
	s.Require().NoError(err)
	s.Equal(len(raw), n)
}

func (s *saPayloadTestSuite) TestDecodeMalformed() {
	raw, err := payloadWithNumbers(1).Encode()
	s.Require().NoError(err)

	_, _, err = DecodeSAPayload(raw[:len(raw)-2])
	s.Require().Error(err)
	s.True(errors.Is(err, wire.ErrMalformed), "unexpected error: %v", err)
	s.Equal(1, s.logs.FilterMessage("SA 载荷解码失败").Len())
}

func (s *saPayloadTestSuite) TestLengthTracksContent() {
	sa := NewSAPayload()
	s.Equal(PAYLOAD_HEADER_LEN, sa.Length())

	// 8 + SPI 4 + (8+4) + 8 + 8
	sa.AddProposal(espProposal(1))
	s.Equal(PAYLOAD_HEADER_LEN+40, sa.Length())
	s.Equal(sa.Length(), sa.Length())

	sa.AddProposal(espProposal(2))
	s.Equal(PAYLOAD_HEADER_LEN+80, sa.Length())

	raw, err := sa.Encode()
	s.Require().NoError(err)
	s.Len(raw, sa.Length())
}

func (s *saPayloadTestSuite) TestLastFlagFollowsTail() {
	sa := payloadWithNumbers(1, 2, 3)
	props := slices.Collect(sa.Proposals(true))
	s.False(props[0].IsLast())
	s.False(props[1].IsLast())
	s.True(props[2].IsLast())

	for _, prop := range props {
		ts := slices.Collect(prop.Transforms(true))
		s.False(ts[0].IsLast())
		s.False(ts[1].IsLast())
		s.True(ts[2].IsLast())
	}

	raw, err := sa.Encode()
	s.Require().NoError(err)
	s.Equal(byte(moreProposals), raw[PAYLOAD_HEADER_LEN])
	// 第一个提议头部 + SPI 之后是第一个变换
	s.Equal(byte(moreTransforms), raw[PAYLOAD_HEADER_LEN+PROPOSAL_HEADER_LEN+4])
}

func (s *saPayloadTestSuite) TestBackwardIteration() {
	sa := payloadWithNumbers(1, 2, 3)
	var nums []uint8
	for prop := range sa.Proposals(false) {
		nums = append(nums, prop.Number())
	}
	s.Equal([]uint8{3, 2, 1}, nums)

	var types []TransformType
	for t := range slices.Collect(sa.Proposals(true))[0].Transforms(false) {
		types = append(types, t.Type())
	}
	s.Equal([]TransformType{TransformTypeESN, TransformTypeInteg, TransformTypeEncr}, types)
}

func (s *saPayloadTestSuite) TestVerifyNumbering() {
	tests := []struct {
		nums []uint8
		ok   bool
	}{
		{[]uint8{1}, true},
		{[]uint8{1, 2, 3}, true},
		{[]uint8{1, 1, 2}, true},
		{[]uint8{1, 2, 2, 3}, true},
		{[]uint8{1, 3}, false},
		{[]uint8{2, 1}, false},
		{[]uint8{2}, false},
		{[]uint8{1, 2, 1}, false},
	}
	for _, tt := range tests {
		err := payloadWithNumbers(tt.nums...).Verify()
		if tt.ok {
			s.NoError(err, "numbers %v", tt.nums)
		} else {
			s.True(errors.Is(err, ErrProposalNumbering), "numbers %v: %v", tt.nums, err)
		}
	}
	s.NoError(NewSAPayload().Verify())
}

func (s *saPayloadTestSuite) TestVerifyRejectsCritical() {
	raw, err := payloadWithNumbers(1).Encode()
	s.Require().NoError(err)
	raw[1] |= 0x80

	dec, _, err := DecodeSAPayload(raw)
	s.Require().NoError(err)
	s.True(dec.Critical())
	s.True(errors.Is(dec.Verify(), ErrCriticalPayload))
	s.Equal(1, s.logs.FilterMessage("拒绝 SA 载荷: Critical 位已设置").Len())
}

func (s *saPayloadTestSuite) TestVerifyRejectsTransformCountMismatch() {
	raw, err := payloadWithNumbers(1).Encode()
	s.Require().NoError(err)
	raw[PAYLOAD_HEADER_LEN+7] = 5

	dec, _, err := DecodeSAPayload(raw)
	s.Require().NoError(err)
	s.True(errors.Is(dec.Verify(), ErrMalformedProposal))
}

func (s *saPayloadTestSuite) TestTLVAttributeRoundTrip() {
	t := NewTransform(TransformTypeEncr, ENCR_AES_CBC)
	t.attributes = append(t.attributes,
		NewAttributeTV(AttributeKeyLength, 256),
		NewAttributeTLV(0x1234, []byte{0xde, 0xad, 0xbe}))
	prop := NewProposal(1, ProtoIKE, nil)
	prop.AddTransform(t)
	sa := NewSAPayload()
	sa.AddProposal(prop)

	raw, err := sa.Encode()
	s.Require().NoError(err)
	s.Len(raw, PAYLOAD_HEADER_LEN+PROPOSAL_HEADER_LEN+TRANSFORM_HEADER_LEN+4+7)

	dec, _, err := DecodeSAPayload(raw)
	s.Require().NoError(err)
	attrs := slices.Collect(slices.Collect(dec.Proposals(true))[0].Transforms(true))[0].Attributes()
	s.Require().Len(attrs, 2)
	s.True(attrs[0].IsTV())
	s.Equal(uint16(256), attrs[0].Value())
	s.False(attrs[1].IsTV())
	s.Equal(uint16(0x1234), attrs[1].Type())
	s.Equal([]byte{0xde, 0xad, 0xbe}, attrs[1].Data())
	s.Zero(attrs[1].Value())
}

func (s *saPayloadTestSuite) TestDestroy() {
	sa := payloadWithNumbers(1, 2, 3)
	props := slices.Collect(sa.Proposals(true))
	sa.Destroy()

	s.Zero(sa.ProposalCount())
	s.Equal(PAYLOAD_HEADER_LEN, sa.Length())
	for _, prop := range props {
		s.Zero(prop.TransformCount())
		s.Equal(PROPOSAL_HEADER_LEN+4, prop.Length())
	}
}

func TestSAPayload(t *testing.T) {
	suite.Run(t, new(saPayloadTestSuite))
}
