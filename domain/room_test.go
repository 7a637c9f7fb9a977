package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Room_Expiry(t *testing.T) {
	req := require.New(t)
	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	req.True(Room{ExpiryTime: &past}.Expired(now))
	req.False(Room{ExpiryTime: &future}.Expired(now))
	// GROUP/DIRECT rooms carry no expiry and never expire.
	req.False(Room{}.Expired(now))
}
