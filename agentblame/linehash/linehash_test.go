package linehash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashFormat(t *testing.T) {
	assert := assert.New(t)
	h := Hash("return nil")
	assert.True(strings.HasPrefix(h, "sha256:"))
	assert.Len(Value(h), 16)
}

func TestHashNormalizesLineEndings(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Hash("a\nb"), Hash("a\r\nb"))
	assert.Equal(Hash("a\nb"), Hash("a\nb\n"))
}

func TestHashBlock(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Hash("a\nb\nc"), HashBlock([]string{"a", "b", "c"}))
}

func TestFileLineHashes(t *testing.T) {
	assert := assert.New(t)
	hashes := FileLineHashes("func main() {\n\treturn\n}\n")
	assert.Len(hashes, 3)
	assert.Equal(Hash("func main() {"), hashes[1])
	assert.Equal(Hash("\treturn"), hashes[2])
	assert.Equal(Hash("}"), hashes[3])
}

func TestFileLineHashesNoTrailingNewline(t *testing.T) {
	assert := assert.New(t)
	hashes := FileLineHashes("a\nb")
	assert.Len(hashes, 2)
}

func TestMatch(t *testing.T) {
	assert := assert.New(t)
	full := Hash("some content")
	assert.True(Match(full, full))
	// legacy shorter hashes compare on the shorter length
	short := "sha256:" + Value(full)[:8]
	assert.True(Match(full, short))
	assert.True(Match(short, full))
	assert.False(Match(full, Hash("other content")))
	assert.False(Match(full, ""))
	assert.False(Match("", ""))
	assert.False(Match("sha256:", full))
}

func TestMatchCaseInsensitive(t *testing.T) {
	assert := assert.New(t)
	full := Hash("x")
	upper := "sha256:" + strings.ToUpper(Value(full))
	assert.True(Match(full, upper))
}

func TestIsTrivial(t *testing.T) {
	assert := assert.New(t)
	for _, s := range []string{"", " ", "\t", "  ", "    ", "\t\t"} {
		assert.True(IsTrivial(Hash(s)), "%q should be trivial", s)
	}
	assert.False(IsTrivial(Hash("return nil")))
	assert.False(IsTrivial(Hash("   x")))
}

func TestIsTrivialShortHash(t *testing.T) {
	assert := assert.New(t)
	short := "sha256:" + Value(Hash(""))[:8]
	assert.True(IsTrivial(short))
}
