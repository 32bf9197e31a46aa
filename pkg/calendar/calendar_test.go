package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "plain date", in: "2025-09-22", want: true},
		{name: "leap day", in: "2024-02-29", want: true},
		{name: "non leap year", in: "2023-02-29", want: false},
		{name: "impossible day", in: "2024-02-30", want: false},
		{name: "unpadded month", in: "2024-2-03", want: false},
		{name: "trailing text", in: "2024-02-03T00:00", want: false},
		{name: "slashes", in: "2024/02/03", want: false},
		{name: "empty", in: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDate(tt.in))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-09-22")
	require.NoError(t, err)
	assert.Equal(t, Date("2025-09-22"), d)

	_, err = ParseDate("2025-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestRange(t *testing.T) {
	seq := Range("2024-02-27", "2024-03-01")

	var first []Date
	for d := range seq {
		first = append(first, d)
	}
	assert.Equal(t, []Date{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, first)

	// restartable
	var second []Date
	for d := range seq {
		second = append(second, d)
	}
	assert.Equal(t, first, second)
}

func TestRange_Empty(t *testing.T) {
	assert.Empty(t, Days("2024-03-02", "2024-03-01"))
	assert.Empty(t, Days("bogus", "2024-03-01"))
	assert.Empty(t, Days("2024-03-01", "2024-02-30"))
	assert.Equal(t, []Date{"2024-03-01"}, Days("2024-03-01", "2024-03-01"))
}

func TestRange_EarlyBreak(t *testing.T) {
	count := 0
	for range Range("2025-01-01", "2025-12-31") {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, 1, Weekday("2025-09-22")) // Monday
	assert.Equal(t, 0, Weekday("2025-09-28"))
	assert.Equal(t, 6, Weekday("2025-09-27"))
	assert.Equal(t, InvalidWeekday, Weekday("2025-09-31"))
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name               string
		aStart, aEnd       Date
		bStart, bEnd       Date
		wantStart, wantEnd Date
		wantOK             bool
	}{
		{
			name:   "partial overlap",
			aStart: "2025-09-20", aEnd: "2025-09-24",
			bStart: "2025-09-22", bEnd: "2025-09-26",
			wantStart: "2025-09-22", wantEnd: "2025-09-24", wantOK: true,
		},
		{
			name:   "contained",
			aStart: "2025-09-01", aEnd: "2025-09-30",
			bStart: "2025-09-22", bEnd: "2025-09-26",
			wantStart: "2025-09-22", wantEnd: "2025-09-26", wantOK: true,
		},
		{
			name:   "touching",
			aStart: "2025-09-20", aEnd: "2025-09-22",
			bStart: "2025-09-22", bEnd: "2025-09-26",
			wantStart: "2025-09-22", wantEnd: "2025-09-22", wantOK: true,
		},
		{
			name:   "disjoint",
			aStart: "2025-09-01", aEnd: "2025-09-05",
			bStart: "2025-09-22", bEnd: "2025-09-26",
		},
		{
			name:   "inverted input",
			aStart: "2025-09-30", aEnd: "2025-09-01",
			bStart: "2025-09-22", bEnd: "2025-09-26",
		},
		{
			name:   "invalid bound",
			aStart: "2025-09-01", aEnd: "2025-09-31",
			bStart: "2025-09-22", bEnd: "2025-09-26",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := Intersect(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
