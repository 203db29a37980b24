package patches

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pescuma/patchtrace/lib/model"
)

const simplePatch = `From 1234567890abcdef1234567890abcdef12345678 Mon Sep 17 00:00:00 2001
From: Someone <someone@example.com>
Subject: [PATCH] fix input handling

--- a/app.py
+++ b/app.py
@@ -1,3 +1,3 @@
 def handler(input):
-    eval(input)
+    json.loads(input)
     return
`

func TestParse(t *testing.T) {
	t.Parallel()

	patch, err := Parse(simplePatch)
	require.NoError(t, err)

	assert.Equal(t, "1234567890abcdef1234567890abcdef12345678", patch.Baseline)
	require.Len(t, patch.Files, 1)

	file := patch.Files[0]
	assert.Equal(t, "app.py", file.OldPath)
	assert.Equal(t, "app.py", file.NewPath)
	assert.Equal(t, "app.py", file.TrackedPath)
	assert.Equal(t, model.StatusUnchanged, file.Status)

	require.Len(t, file.Changes, 4)
	assert.Equal(t, model.LineContext, file.Changes[0].Type)
	assert.Equal(t, "def handler(input):", file.Changes[0].Text)
	assert.Equal(t, model.LineRemoved, file.Changes[1].Type)
	assert.Equal(t, "    eval(input)", file.Changes[1].Text)
	assert.Equal(t, model.LineAdded, file.Changes[2].Type)
	assert.Equal(t, "    json.loads(input)", file.Changes[2].Text)
	assert.Equal(t, model.LineContext, file.Changes[3].Type)
}

func TestParseGitHeaderKeepsRealPrefixDirs(t *testing.T) {
	t.Parallel()

	// The parser already strips a/ and b/ from git headers; a repo path that
	// genuinely lives under b/ must not be stripped a second time.
	text := `diff --git a/b/x.py b/b/x.py
index 1111111..2222222 100644
--- a/b/x.py
+++ b/b/x.py
@@ -1,1 +1,1 @@
-old line
+new line
`

	patch, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, patch.Files, 1)

	assert.Equal(t, "b/x.py", patch.Files[0].OldPath)
	assert.Equal(t, "b/x.py", patch.Files[0].NewPath)
}

func TestParseNewFile(t *testing.T) {
	t.Parallel()

	text := `--- /dev/null
+++ b/new.py
@@ -0,0 +1,1 @@
+hello()
`

	patch, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, patch.Files, 1)

	assert.Equal(t, "new.py", patch.Files[0].NewPath)
	assert.Equal(t, "new.py", patch.Files[0].OldPath)
}

func TestParseWithoutShaHeader(t *testing.T) {
	t.Parallel()

	text := `--- a/app.py
+++ b/app.py
@@ -1,1 +1,1 @@
-old line
+new line
`

	patch, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "", patch.Baseline)

	_, err = FindBaselineSha(text)
	assert.Error(t, err)
}

func TestParseEmptyPatch(t *testing.T) {
	t.Parallel()

	_, err := Parse("not a patch at all")
	assert.Error(t, err)
}

func TestFindBaselineSha(t *testing.T) {
	t.Parallel()

	sha, err := FindBaselineSha(simplePatch)
	require.NoError(t, err)
	assert.Equal(t, "1234567890abcdef1234567890abcdef12345678", sha)
}
