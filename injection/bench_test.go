// SPDX-License-Identifier: MIT

package injection_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/katalvlaran/gridflow/injection"
	"github.com/katalvlaran/gridflow/internal/fixture"
)

// BenchmarkSnapshotReads walks every snapshot once, the way the allocation
// loop reads the cache. ns/op should grow linearly with the horizon.
func BenchmarkSnapshotReads(b *testing.B) {
	for _, hours := range []int{250, 1000, 4000} {
		b.Run(fmt.Sprintf("hours=%d", hours), func(b *testing.B) {
			n := fixture.TwoBusOver(fixture.Hours(fixture.T0, hours))
			agg := injection.NewAggregator(n)
			if err := agg.Warm(); err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				for _, sn := range n.Snapshots {
					one := []time.Time{sn}
					_, _ = agg.NetworkInjection(one)
					_, _ = agg.PowerProduction(one, nil, false)
					_, _ = agg.SelfConsumption(one, false)
				}
			}
		})
	}
}
