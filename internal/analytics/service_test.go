package analytics

import (
	"testing"

	"go_storefront/internal/model"

	"gorm.io/datatypes"
)

func domainWith(status model.DomainStatus, ssl bool, metadata datatypes.JSONMap) model.StoreDomain {
	return model.StoreDomain{
		Status:     status,
		SSLEnabled: ssl,
		Metadata:   metadata,
	}
}

func TestAggregateDomainStats(t *testing.T) {
	domains := []model.StoreDomain{
		domainWith(model.DomainStatusVerified, true, datatypes.JSONMap{"online": true, "latencyMs": float64(40)}),
		domainWith(model.DomainStatusVerified, true, datatypes.JSONMap{"online": true, "latencyMs": float64(80)}),
		domainWith(model.DomainStatusPending, false, nil),
	}

	stats := aggregateDomainStats(domains)

	if stats.Total != 3 || stats.Verified != 2 || stats.Pending != 1 || stats.Failed != 0 {
		t.Errorf("status counts wrong: %+v", stats)
	}
	if stats.SSLEnabled != 2 {
		t.Errorf("sslEnabled = %d, want 2", stats.SSLEnabled)
	}
	if stats.AvgResponseTimeMS != 60 {
		t.Errorf("avgResponseTimeMs = %v, want 60", stats.AvgResponseTimeMS)
	}
}

func TestAggregateDomainStats_Empty(t *testing.T) {
	stats := aggregateDomainStats(nil)
	if stats.Total != 0 || stats.AvgResponseTimeMS != 0 {
		t.Errorf("empty tenant should produce zero stats, got %+v", stats)
	}
}

func TestSnapshotLatency(t *testing.T) {
	tests := []struct {
		name     string
		metadata datatypes.JSONMap
		want     int64
		wantOK   bool
	}{
		{"no snapshot yet", nil, 0, false},
		{"online with latency", datatypes.JSONMap{"online": true, "latencyMs": float64(123)}, 123, true},
		{"offline excluded", datatypes.JSONMap{"online": false, "latencyMs": float64(5000)}, 0, false},
		{"missing latency", datatypes.JSONMap{"online": true}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := model.StoreDomain{Metadata: tt.metadata}
			got, ok := snapshotLatency(d)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("snapshotLatency = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
