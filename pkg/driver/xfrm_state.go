package driver

import (
	"fmt"
	"net"

	"github.com/iniwex5/netlink"
)

// XFRMStateConfig 安装一个 Child SA 所需的地址和密钥，算法来自 XFRMAlgos
type XFRMStateConfig struct {
	Src  net.IP // 本机 IP
	Dst  net.IP // 对端 IP
	SPI  uint32
	Mode netlink.Mode

	// AEAD 时 EncKey = encKey + salt，AuthKey 为空
	EncKey  []byte
	AuthKey []byte

	ReplayWindow  int
	TimeLimitSoft uint64
	TimeLimitHard uint64
}

// BuildXfrmState 按协商出的算法模板构建 netlink.XfrmState，
// 密钥长度必须与模板一致
func BuildXfrmState(algos *XFRMAlgos, cfg XFRMStateConfig) (*netlink.XfrmState, error) {
	state := &netlink.XfrmState{
		Src:   cfg.Src,
		Dst:   cfg.Dst,
		Proto: algos.Proto,
		Mode:  cfg.Mode,
		Spi:   int(cfg.SPI),
		// tunnel mode SA 需要 XFRM_STATE_AF_UNSPEC，允许处理任意地址族的流量
		AFUnspec: cfg.Mode == netlink.XFRM_MODE_TUNNEL,
		ESN:      algos.ESN,
		Limits: netlink.XfrmStateLimits{
			TimeSoft: cfg.TimeLimitSoft,
			TimeHard: cfg.TimeLimitHard,
		},
	}

	if cfg.ReplayWindow > 0 {
		state.ReplayWindow = cfg.ReplayWindow
	} else {
		state.ReplayWindow = 32
	}

	if algos.Aead != nil {
		if err := checkKey("AEAD", cfg.EncKey, algos.AeadKeyBits); err != nil {
			return nil, err
		}
		state.Aead = withKey(algos.Aead, cfg.EncKey)
		return state, nil
	}

	if algos.Crypt != nil {
		if err := checkKey("加密", cfg.EncKey, algos.CryptKeyBits); err != nil {
			return nil, err
		}
		state.Crypt = withKey(algos.Crypt, cfg.EncKey)
	}
	if algos.Auth != nil {
		if err := checkKey("完整性", cfg.AuthKey, algos.AuthKeyBits); err != nil {
			return nil, err
		}
		state.Auth = withKey(algos.Auth, cfg.AuthKey)
	}
	return state, nil
}

func checkKey(kind string, key []byte, bits int) error {
	if len(key)*8 != bits {
		return fmt.Errorf("%s密钥长度错误: 需要 %d 位，实际 %d 位", kind, bits, len(key)*8)
	}
	return nil
}

// 模板被多个 SA 共用，复制后再填充密钥
func withKey(tmpl *netlink.XfrmStateAlgo, key []byte) *netlink.XfrmStateAlgo {
	algo := *tmpl
	algo.Key = append([]byte(nil), key...)
	return &algo
}
