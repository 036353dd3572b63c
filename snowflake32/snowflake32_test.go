package snowflake32

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnowflake_NextVal(t *testing.T) {
	snow := NewSnowflake(1, 1)
	seen := make(map[uint32]bool)
	for i := 0; i < 1500; i++ {
		v := snow.NextVal()
		assert.False(t, seen[v], "duplicated: %d", v)
		seen[v] = true
	}
	t.Logf("curVal: %s", snow)
}

func TestSnowflake_Layout(t *testing.T) {
	fixed := time.Date(2022, 10, 19, 23, 59, 59, 0, time.Local)
	snow := NewSnowflake(2, 5)
	snow.now = func() time.Time { return fixed }

	v := snow.NextVal()
	t.Logf("curVal: %#b", v)
	assert.Equal(t, uint32(86399), v>>timestampShift)
	assert.Equal(t, uint32(2), (v>>datacenterShift)&datacenterMask)
	assert.Equal(t, uint32(5), (v>>workerShift)&workerMask)
	assert.Equal(t, uint32(0), v&sequenceMask)
	assert.Equal(t, uint32(1), snow.NextVal()&sequenceMask)
}

func TestSnowflake_NextId(t *testing.T) {
	snow := NewSnowflake(0, 0)
	id := snow.NextId()
	t.Logf("id: %s", id)
	assert.Len(t, id, 8)
	assert.NotEqual(t, id, snow.NextId())
}
