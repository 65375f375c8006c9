package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestIsAdDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"WWW.Google-Analytics.com", true},
		{"doubleclick.net.", true},
		{"www.examtopics.com", false},
		{"net", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isAdDomain(tt.host))
		})
	}
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Media", "Font", "Bogus"})
	assert.Len(t, got, 2)
	assert.Contains(t, got, proto.NetworkResourceTypeMedia)
	assert.Contains(t, got, proto.NetworkResourceTypeFont)

	assert.Empty(t, blockedSet(nil))
}
