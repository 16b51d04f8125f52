package e2e_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonmap/internal/demo"
	"github.com/mcncl/jsonmap/pkg/jsonmap"
)

// generateOrder creates an order document with itemCount items.
func generateOrder(id, itemCount int) map[string]any {
	items := make([]map[string]any, itemCount)
	for i := range items {
		items[i] = map[string]any{
			"Sku":      fmt.Sprintf("SKU-%d", i),
			"Quantity": rand.Intn(100),
			"Price":    rand.Float64() * 100,
		}
	}

	order := map[string]any{
		"Id":      id,
		"Channel": "Web",
		"Items":   items,
	}
	if id%2 == 0 {
		order["ExternID"] = fmt.Sprintf("EXT-%d", id)
	} else {
		order["ExternID"] = id
	}
	if itemCount > 0 {
		order["PrimaryItem"] = items[0]
	}
	return order
}

func newBenchMapper(b *testing.B) *jsonmap.Mapper {
	b.Helper()
	m, err := jsonmap.New(
		jsonmap.WithRegistry(demo.Registry()),
		jsonmap.WithSettings(jsonmap.DefaultSettings().WithPrettyPrint(false)),
	)
	require.NoError(b, err)
	return m
}

// BenchmarkWideOrders measures a round trip of one order with many items.
func BenchmarkWideOrders(b *testing.B) {
	widths := []struct {
		name      string
		itemCount int
	}{
		{"Items10", 10},
		{"Items100", 100},
		{"Items1000", 1000},
	}

	for _, width := range widths {
		b.Run(width.name, func(b *testing.B) {
			data, err := json.Marshal(generateOrder(1, width.itemCount))
			require.NoError(b, err)
			m := newBenchMapper(b)

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				order := demo.NewOrder()
				if err := m.Deserialize(data, order); err != nil {
					b.Fatal(err)
				}
				if _, err := m.Serialize(order); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkArrayProcessing measures decoding a root array of orders.
func BenchmarkArrayProcessing(b *testing.B) {
	sizes := []struct {
		name      string
		arraySize int
	}{
		{"Array100", 100},
		{"Array1000", 1000},
		{"Array5000", 5000},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			orders := make([]map[string]any, size.arraySize)
			for i := range orders {
				orders[i] = generateOrder(i, 3)
			}
			data, err := json.Marshal(orders)
			require.NoError(b, err)
			m := newBenchMapper(b)

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				out, err := jsonmap.DeserializeSliceOf[*demo.Order](m, data)
				if err != nil {
					b.Fatal(err)
				}
				if len(out) != size.arraySize {
					b.Fatalf("decoded %d orders, want %d", len(out), size.arraySize)
				}
			}
		})
	}
}

// BenchmarkPlanCache compares a reused Mapper with a throwaway one per call.
func BenchmarkPlanCache(b *testing.B) {
	data, err := json.Marshal(generateOrder(2, 5))
	require.NoError(b, err)
	registry := demo.Registry()

	b.Run("Reused", func(b *testing.B) {
		m := newBenchMapper(b)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := m.Deserialize(data, demo.NewOrder()); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("PerCall", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if err := jsonmap.Deserialize(data, demo.NewOrder(), jsonmap.WithRegistry(registry)); err != nil {
				b.Fatal(err)
			}
		}
	})
}
