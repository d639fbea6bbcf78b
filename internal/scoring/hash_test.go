package scoring

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

func TestColorKey(t *testing.T) {
	t.Run("empty owner gets the sentinel", func(t *testing.T) {
		assert.Equal(t, NoOwnerColorKey, ColorKey(""))
		assert.Equal(t, NoOwnerColorKey, ColorKey("   "))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, ColorKey("platform"), ColorKey("  Platform "))
	})

	t.Run("six hex chars", func(t *testing.T) {
		key := ColorKey("payments-core")
		assert.Len(t, key, 6)
		assert.Regexp(t, hexRe, key)
		assert.NotEqual(t, NoOwnerColorKey, key)
	})
}

func TestSyntheticIDs(t *testing.T) {
	t.Run("dep IDs are stable under normalization", func(t *testing.T) {
		assert.Equal(t, DepID("redis"), DepID("  Redis "))
		assert.Contains(t, DepID("redis"), "dep:")
		assert.Len(t, DepID("redis"), len("dep:")+40)
	})

	t.Run("runtime IDs", func(t *testing.T) {
		assert.Equal(t, RuntimeID("aws:lambda:eu-west-1"), RuntimeID("AWS:Lambda:EU-WEST-1"))
		assert.Contains(t, RuntimeID("aws:lambda:eu-west-1"), "rt:")
	})

	t.Run("distinct values yield distinct IDs", func(t *testing.T) {
		assert.NotEqual(t, DepID("redis"), DepID("postgres"))
		assert.NotEqual(t, DepID("redis"), RuntimeID("redis"))
	})

	t.Run("software IDs keep the raw inventory ID", func(t *testing.T) {
		assert.Equal(t, "svc:abc-123", SoftwareID(" abc-123 "))
	})
}

func TestQueryHash(t *testing.T) {
	t.Run("identical tuples yield identical hashes", func(t *testing.T) {
		a := QueryHash("org-1", "software", "svc-1", 2)
		b := QueryHash("org-1", "software", "svc-1", 2)
		assert.Equal(t, a, b)
		assert.Len(t, a, 16)
		assert.Regexp(t, hexRe, a)
	})

	t.Run("every tuple element matters", func(t *testing.T) {
		base := QueryHash("org-1", "software", "svc-1", 2)
		assert.NotEqual(t, base, QueryHash("org-2", "software", "svc-1", 2))
		assert.NotEqual(t, base, QueryHash("org-1", "dependency", "svc-1", 2))
		assert.NotEqual(t, base, QueryHash("org-1", "software", "svc-2", 2))
		assert.NotEqual(t, base, QueryHash("org-1", "software", "svc-1", 3))
	})

	t.Run("normalizes whitespace and kind case", func(t *testing.T) {
		assert.Equal(t,
			QueryHash("org-1", "software", "svc-1", 2),
			QueryHash(" org-1 ", "Software", " svc-1", 2),
		)
	})
}
