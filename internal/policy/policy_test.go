package policy

import (
	"testing"

	"framegrab/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		tier        models.Tier
		requested   int
		wantQuality int
		wantLimit   int
	}{
		{name: "free clamps 1080", tier: models.TierFree, requested: 1080, wantQuality: 480, wantLimit: 12},
		{name: "free keeps lower quality", tier: models.TierFree, requested: 360, wantQuality: 360, wantLimit: 12},
		{name: "free at the cap", tier: models.TierFree, requested: 480, wantQuality: 480, wantLimit: 12},
		{name: "pro passes 1080 through", tier: models.TierPro, requested: 1080, wantQuality: 1080, wantLimit: 50},
		{name: "pro passes 2160 through", tier: models.TierPro, requested: 2160, wantQuality: 2160, wantLimit: 50},
		{name: "missing quality defaults", tier: models.TierPro, requested: 0, wantQuality: 480, wantLimit: 50},
		{name: "negative quality defaults", tier: models.TierFree, requested: -20, wantQuality: 480, wantLimit: 12},
		{name: "unknown tier is free", tier: models.Tier("gold"), requested: 720, wantQuality: 480, wantLimit: 12},
	}

	table := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, l := table.Resolve(tt.tier, tt.requested)
			if q != tt.wantQuality || l != tt.wantLimit {
				t.Errorf("Resolve(%s, %d) = (%d, %d), want (%d, %d)", tt.tier, tt.requested, q, l, tt.wantQuality, tt.wantLimit)
			}
		})
	}
}

func TestResolveCustomTable(t *testing.T) {
	table := Table{
		models.TierFree: {FrameLimit: 3, MaxQuality: 240},
		models.TierPro:  {FrameLimit: 7, MaxQuality: 720},
	}
	if q, l := table.Resolve(models.TierPro, 1080); q != 720 || l != 7 {
		t.Errorf("got (%d, %d), want (720, 7)", q, l)
	}
	if q, l := table.Resolve(models.TierFree, 1080); q != 240 || l != 3 {
		t.Errorf("got (%d, %d), want (240, 3)", q, l)
	}
}
