package coulomb

import "testing"

func benchmarkUpdate(b *testing.B, n, workers int) {
	eng := New(randomSource(n, 1), 1, WithWorkers(workers))
	defer eng.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := eng.Update(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUpdate_Serial_256(b *testing.B)   { benchmarkUpdate(b, 256, 1) }
func BenchmarkUpdate_Parallel_256(b *testing.B) { benchmarkUpdate(b, 256, 0) }
func BenchmarkUpdate_Serial_1024(b *testing.B)  { benchmarkUpdate(b, 1024, 1) }
func BenchmarkUpdate_Parallel_1024(b *testing.B) {
	benchmarkUpdate(b, 1024, 0)
}
