package band

import (
	"strings"
	"testing"

	"github.com/dougsko/trx8/pkg/config"
)

func bandOverride() []config.BandConfig {
	bands := make([]config.BandConfig, Count)
	for i := range bands {
		bands[i] = config.BandConfig{
			Name:     "b",
			Lower:    1000000,
			Upper:    2000000,
			Center:   1500000,
			Sideband: "USB",
			DefaultA: 1500000,
			DefaultB: 1600000,
		}
	}
	return bands
}

func TestFactory(t *testing.T) {
	for i, b := range Factory {
		if !b.Contains(b.Center) {
			t.Errorf("Band %s: centre %d outside %d..%d", b.Name, b.Center, b.Lower, b.Upper)
		}
		for vfo, f := range b.Defaults {
			if !Factory.Contains(i, f) {
				t.Errorf("Band %s: default %d of VFO %d outside the band", b.Name, f, vfo)
			}
		}
	}
	if Factory[DefaultBand].Name != "40m" {
		t.Errorf("Expected default band 40m, got %s", Factory[DefaultBand].Name)
	}
}

func TestContains(t *testing.T) {
	b := Factory[2]
	cases := map[uint32]bool{
		6999999: false,
		7000000: true,
		7120000: true,
		7200000: true,
		7200001: false,
	}
	for f, expected := range cases {
		if got := b.Contains(f); got != expected {
			t.Errorf("Contains(%d): expected %v, got %v", f, expected, got)
		}
	}

	if Factory.Contains(-1, 7120000) || Factory.Contains(Count, 7120000) {
		t.Error("Expected out-of-range band indices to contain nothing")
	}
}

func TestRelayCode(t *testing.T) {
	for i := 0; i < Count; i++ {
		if got := RelayCode(i); got != uint8(i) {
			t.Errorf("Band %d: expected relay code %d, got %d", i, i, got)
		}
	}
	if got := RelayCode(9); got != 1 {
		t.Errorf("Expected the code to keep 3 bits, got %d", got)
	}
}

func TestFromConfig(t *testing.T) {
	t.Run("Factory", func(t *testing.T) {
		plan, err := FromConfig(config.Default())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if plan != Factory {
			t.Error("Expected the factory table without an override")
		}
	})

	t.Run("Override", func(t *testing.T) {
		cfg := config.Default()
		cfg.Bands = bandOverride()
		cfg.Bands[0].Sideband = "LSB"

		plan, err := FromConfig(cfg)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if plan[0].Preferred != LSB || plan[1].Preferred != USB {
			t.Errorf("Expected sidebands LSB/USB, got %s/%s", plan[0].Preferred, plan[1].Preferred)
		}
		if plan[3].Defaults != [VFOCount]uint32{1500000, 1600000} {
			t.Errorf("Expected defaults 1500000/1600000, got %v", plan[3].Defaults)
		}
	})

	t.Run("Wrong Count", func(t *testing.T) {
		cfg := config.Default()
		cfg.Bands = bandOverride()[:3]
		if _, err := FromConfig(cfg); err == nil {
			t.Error("Expected error for a short table")
		}
	})

	t.Run("Bad Sideband", func(t *testing.T) {
		cfg := config.Default()
		cfg.Bands = bandOverride()
		cfg.Bands[4].Sideband = "AM"
		if _, err := FromConfig(cfg); err == nil {
			t.Error("Expected error for sideband AM")
		}
	})

	t.Run("Default Outside Band", func(t *testing.T) {
		cfg := config.Default()
		cfg.Bands = bandOverride()
		cfg.Bands[2].DefaultA = 9000000

		_, err := FromConfig(cfg)
		if err == nil {
			t.Fatal("Expected error for an out-of-band default")
		}
		if !strings.Contains(err.Error(), "band 2: default 9000000") {
			t.Errorf("Expected the band and value in the error, got: %v", err)
		}
	})

	t.Run("Centre Outside Band", func(t *testing.T) {
		cfg := config.Default()
		cfg.Bands = bandOverride()
		cfg.Bands[7].Center = 2500000
		if _, err := FromConfig(cfg); err == nil {
			t.Error("Expected error for an out-of-band centre")
		}
	})
}
