package runner

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pescuma/patchtrace/lib/consoles"
	"github.com/pescuma/patchtrace/lib/detectors"
	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/patches"
	"github.com/pescuma/patchtrace/lib/vcs"
	"github.com/pescuma/patchtrace/lib/vcs/vcstest"
)

func TestComputeVerdictNotConfident(t *testing.T) {
	t.Parallel()

	o := model.NewOverallResult()
	o.AdditionsDetected = 0
	o.AdditionsTotal = 5

	assert.Equal(t, model.VerdictIndeterminate, computeVerdict(o, 0.5, 0.25))
}

func TestComputeVerdictAdditionsBelowThreshold(t *testing.T) {
	t.Parallel()

	o := model.NewOverallResult()
	o.Confident = true
	o.AdditionsDetected = 1
	o.AdditionsTotal = 4

	assert.Equal(t, model.VerdictVulnerable, computeVerdict(o, 0.5, 0.25))
}

func TestComputeVerdictDeletionsBelowThreshold(t *testing.T) {
	t.Parallel()

	o := model.NewOverallResult()
	o.Confident = true
	o.AdditionsDetected = 4
	o.AdditionsTotal = 4
	o.DeletionsDetected = 0
	o.DeletionsTotal = 4

	assert.Equal(t, model.VerdictVulnerable, computeVerdict(o, 0.5, 0.25))
}

func TestComputeVerdictPatched(t *testing.T) {
	t.Parallel()

	o := model.NewOverallResult()
	o.Confident = true
	o.AdditionsDetected = 4
	o.AdditionsTotal = 4
	o.DeletionsDetected = 4
	o.DeletionsTotal = 4

	assert.Equal(t, model.VerdictPatched, computeVerdict(o, 0.5, 0.25))
}

func TestComputeVerdictUndefinedRatiosFireNoThreshold(t *testing.T) {
	t.Parallel()

	o := model.NewOverallResult()
	o.Confident = true

	assert.Equal(t, model.VerdictPatched, computeVerdict(o, 0.5, 0.25))
}

func TestCanonicalVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v1.2.3", canonicalVersion("1.2.3"))
	assert.Equal(t, "v1.2.3", canonicalVersion("v1.2.3"))
	assert.Equal(t, "", canonicalVersion(""))
}

func TestRunOverTaggedVersions(t *testing.T) {
	b := vcstest.NewRepoBuilder(t)

	b.WriteFile("README.md", "docs\n")
	b.Commit("initial")
	b.Tag("v0.5.0")

	b.WriteFile("app.py", "def handler(input):\n    eval(input)\n    return True\n")
	b.Commit("add handler")
	b.Tag("v1.0.0")

	b.WriteFile("app.py", "def handler(input):\n    json.loads(input)\n    return True\n")
	baseline := b.Commit("fix handler")
	b.Tag("v2.0.0")

	patchText := fmt.Sprintf(`From %v Mon Sep 17 00:00:00 2001
From: Someone <someone@example.com>
Subject: [PATCH] fix input handling

--- a/app.py
+++ b/app.py
@@ -1,3 +1,3 @@
 def handler(input):
-    eval(input)
+    json.loads(input)
     return True
`, baseline)

	patch, err := patches.Parse(patchText)
	require.NoError(t, err)
	require.Equal(t, baseline, patch.Baseline)

	provider, err := vcs.OpenGit(b.Dir())
	require.NoError(t, err)

	catalog, err := detectors.NewCatalog(nil)
	require.NoError(t, err)

	r := New(consoles.NewStdOutConsole(false), provider, catalog, &Options{
		AdditionsThreshold: 0.5,
		DeletionsThreshold: 0.25,
		PatchFile:          "fix.patch",
	})

	run, err := r.Run(context.Background(), patch)
	require.NoError(t, err)

	require.Len(t, run.Versions, 3)
	assert.Equal(t, baseline, run.Baseline)

	byVersion := map[string]*model.VersionResult{}
	for _, v := range run.Versions {
		byVersion[v.Version] = v
	}

	before := byVersion["v0.5.0"]
	require.NotNil(t, before.Overall)
	assert.False(t, before.Overall.Confident)
	assert.Equal(t, model.VerdictIndeterminate, before.Overall.Verdict)
	assert.Equal(t, model.StatusMissing, before.Overall.Breakdown["app.py"].Status)

	vulnerable := byVersion["v1.0.0"]
	require.NotNil(t, vulnerable.Overall)
	assert.True(t, vulnerable.Overall.Confident)
	assert.Equal(t, model.VerdictVulnerable, vulnerable.Overall.Verdict)
	assert.Equal(t, 0, vulnerable.Overall.AdditionsDetected)
	assert.Equal(t, 1, vulnerable.Overall.AdditionsTotal)
	assert.Equal(t, 0, vulnerable.Overall.DeletionsDetected)

	patched := byVersion["v2.0.0"]
	require.NotNil(t, patched.Overall)
	assert.True(t, patched.Overall.Confident)
	assert.Equal(t, model.VerdictPatched, patched.Overall.Verdict)
	assert.Equal(t, 1, patched.Overall.AdditionsDetected)
	assert.Equal(t, 1, patched.Overall.DeletionsDetected)

	// The working tree is back on the original branch
	branch, err := provider.ActiveBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestRunDetectsAcrossRename(t *testing.T) {
	b := vcstest.NewRepoBuilder(t)

	b.WriteFile("app.py", "def handler(input):\n    eval(input)\n    return True\n")
	b.Commit("add handler")

	b.WriteFile("app.py", "def handler(input):\n    json.loads(input)\n    return True\n")
	baseline := b.Commit("fix handler")

	b.Rename("app.py", "server/app.py")
	b.Commit("move into server")
	b.Tag("v2.0.0")

	patchText := fmt.Sprintf(`From %v Mon Sep 17 00:00:00 2001
From: Someone <someone@example.com>
Subject: [PATCH] fix input handling

--- a/app.py
+++ b/app.py
@@ -1,3 +1,3 @@
 def handler(input):
-    eval(input)
+    json.loads(input)
     return True
`, baseline)

	patch, err := patches.Parse(patchText)
	require.NoError(t, err)
	require.Len(t, patch.Files, 1)
	require.Equal(t, "app.py", patch.Files[0].NewPath)

	provider, err := vcs.OpenGit(b.Dir())
	require.NoError(t, err)

	catalog, err := detectors.NewCatalog(nil)
	require.NoError(t, err)

	r := New(consoles.NewStdOutConsole(false), provider, catalog, &Options{
		AdditionsThreshold: 0.5,
		DeletionsThreshold: 0.25,
		PatchFile:          "fix.patch",
	})

	run, err := r.Run(context.Background(), patch)
	require.NoError(t, err)
	require.Len(t, run.Versions, 1)

	version := run.Versions[0]
	require.NotNil(t, version.Overall)
	assert.True(t, version.Overall.Confident)
	assert.Equal(t, model.VerdictPatched, version.Overall.Verdict)

	// Detection ran against the renamed file's content
	file, ok := version.Overall.Breakdown["app.py"]
	require.True(t, ok)
	assert.Equal(t, model.StatusUpdated, file.Status)
	assert.Equal(t, 1, file.AdditionsDetected)
	assert.Equal(t, 1, file.AdditionsTotal)
	assert.Equal(t, 1, file.DeletionsDetected)
	assert.Equal(t, 1, file.DeletionsTotal)
}

func TestRunFiltersAndSortsTags(t *testing.T) {
	b := vcstest.NewRepoBuilder(t)

	b.WriteFile("app.py", "print('hi')\n")
	b.Commit("initial")
	b.Tag("v0.9.0")
	b.Tag("v1.10.0")
	b.Tag("v1.2.0")
	b.Tag("nightly")

	provider, err := vcs.OpenGit(b.Dir())
	require.NoError(t, err)

	r := New(consoles.NewStdOutConsole(false), provider, nil, &Options{
		StartVersion: "1.0.0",
	})

	versions, err := r.listVersions()
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.2.0", "v1.10.0"}, versions)
}

func TestRunMissingBaseline(t *testing.T) {
	b := vcstest.NewRepoBuilder(t)
	b.WriteFile("app.py", "print('hi')\n")
	b.Commit("initial")

	provider, err := vcs.OpenGit(b.Dir())
	require.NoError(t, err)

	catalog, err := detectors.NewCatalog(nil)
	require.NoError(t, err)

	r := New(consoles.NewStdOutConsole(false), provider, catalog, &Options{})

	_, err = r.Run(context.Background(), &model.Patch{})
	assert.Error(t, err)
}
