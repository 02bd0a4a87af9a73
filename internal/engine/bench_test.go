package engine

import (
	"strings"
	"testing"
)

func BenchmarkInsertSequential(b *testing.B) {
	e := New()
	_ = e.Load("")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Append("x")
	}
}

func BenchmarkInsertScattered(b *testing.B) {
	e := New(WithContent(strings.Repeat("abcdefghij\n", 10_000)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Insert((i*7919)%e.Len(), "y")
	}
}

func BenchmarkDeleteScattered(b *testing.B) {
	e := New(WithContent(strings.Repeat("abcdefghij\n", 10_000)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if e.Len() < 2 {
			b.StopTimer()
			_ = e.Load(strings.Repeat("abcdefghij\n", 10_000))
			b.StartTimer()
		}
		_ = e.Delete((i*7919)%(e.Len()-1), (i*7919)%(e.Len()-1)+1)
	}
}

func BenchmarkLineOfOffset(b *testing.B) {
	e := New(WithContent(strings.Repeat("abcdefghij\n", 10_000)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.LineOfOffset((i * 7919) % e.Len())
	}
}

func BenchmarkSearchMulti(b *testing.B) {
	e := New(WithContent(strings.Repeat("abcdefghij\n", 10_000)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.SearchMulti("def", 0, true, false)
	}
}
