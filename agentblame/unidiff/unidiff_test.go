package unidiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddedRangesSimple(t *testing.T) {
	assert := assert.New(t)
	diff := `diff --git a/main.go b/main.go
index 111..222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,5 @@
 package main
+import "fmt"
+
 func main() {
 }`
	ranges := AddedRanges(diff)
	assert.Equal([]Range{{Start: 2, End: 3}}, ranges)
}

func TestAddedRangesMultipleHunks(t *testing.T) {
	assert := assert.New(t)
	diff := `--- a/f
+++ b/f
@@ -1,2 +1,3 @@
 a
+b
 c
@@ -10,2 +11,4 @@
 x
+y
+z
 w`
	ranges := AddedRanges(diff)
	assert.Equal([]Range{{Start: 2, End: 2}, {Start: 12, End: 13}}, ranges)
}

func TestAddedRangesDeletionOnly(t *testing.T) {
	assert := assert.New(t)
	diff := `--- a/f
+++ b/f
@@ -1,3 +1,2 @@
 a
-b
 c`
	assert.Empty(AddedRanges(diff))
}

func TestAddedRangesDeletionDoesNotAdvance(t *testing.T) {
	assert := assert.New(t)
	// a deletion between context lines must not shift later additions
	diff := `--- a/f
+++ b/f
@@ -1,4 +1,4 @@
 a
-b
+B
 c
+d`
	ranges := AddedRanges(diff)
	assert.Equal([]Range{{Start: 2, End: 2}, {Start: 4, End: 4}}, ranges)
}

func TestAddedRangesNewFile(t *testing.T) {
	assert := assert.New(t)
	diff := `--- /dev/null
+++ b/f
@@ -0,0 +1,3 @@
+a
+b
+c`
	assert.Equal([]Range{{Start: 1, End: 3}}, AddedRanges(diff))
}

func TestAddedRangesSingleLineHunkHeader(t *testing.T) {
	assert := assert.New(t)
	// count omitted when 1
	diff := `--- a/f
+++ b/f
@@ -1 +1 @@
-a
+b`
	assert.Equal([]Range{{Start: 1, End: 1}}, AddedRanges(diff))
}

func TestAddedRangesNoNewlineMarker(t *testing.T) {
	assert := assert.New(t)
	diff := `--- a/f
+++ b/f
@@ -1 +1,2 @@
 a
+b
\ No newline at end of file`
	assert.Equal([]Range{{Start: 2, End: 2}}, AddedRanges(diff))
}

func TestAddedRangesEmpty(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(AddedRanges(""))
	assert.Empty(AddedRanges("not a diff at all"))
}

func TestLines(t *testing.T) {
	assert := assert.New(t)
	lines := Lines([]Range{{Start: 2, End: 4}, {Start: 9, End: 9}})
	assert.Equal([]int{2, 3, 4, 9}, lines)
	assert.Nil(Lines(nil))
}
