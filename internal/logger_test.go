// Unit tests for logger.go

package threadpool_internal

import (
	"testing"

	threadpool_testutils "github.com/bgp59/threadpool/testutils"
)

func testLogAddModuleDirPathPrefix(t *testing.T, mdpc *ModuleDirPathCache, prefix string, expectedPrefixList []string) {
	mdpc.addPrefix(prefix)
	if len(mdpc.prefixList) != len(expectedPrefixList) {
		t.Fatalf("len(prefixList): want: %d, got: %d", len(expectedPrefixList), len(mdpc.prefixList))
	}
	for i, expected := range expectedPrefixList {
		if mdpc.prefixList[i] != expected {
			t.Errorf("prefixList[%d]: want: %q, got: %q", i, expected, mdpc.prefixList[i])
		}
	}
}

func testLogStripModuleDirPathPrefix(t *testing.T, mdpc *ModuleDirPathCache, filePath string, expected string) {
	if got := mdpc.stripPrefix(filePath); got != expected {
		t.Errorf("stripPrefix(%q): want: %q, got: %q", filePath, expected, got)
	}
}

func TestLogAddModuleDirPathPrefix(t *testing.T) {
	mdpc := &ModuleDirPathCache{}
	for _, tc := range []struct {
		prefix             string
		expectedPrefixList []string
	}{
		{"a/b", []string{"a/b"}},
		{"a/b/c", []string{"a/b/c", "a/b"}},
		{"a", []string{"a/b/c", "a/b", "a"}},
		{"a/b/c/d", []string{"a/b/c/d", "a/b/c", "a/b", "a"}},
	} {
		testLogAddModuleDirPathPrefix(t, mdpc, tc.prefix, tc.expectedPrefixList)
	}
}

func TestLogStripPrefixMatch(t *testing.T) {
	mdpc := &ModuleDirPathCache{prefixList: []string{"a/b/c/", "c/d/", "e/"}}
	for _, tc := range []struct {
		filePath string
		expected string
	}{
		{"a/b/c/d/e/f", "d/e/f"},
		{"c/d/e/f/g", "e/f/g"},
		{"e/f/g/h", "f/g/h"},
	} {
		testLogStripModuleDirPathPrefix(t, mdpc, tc.filePath, tc.expected)
	}
}

func TestLogStripPrefixNoMatch(t *testing.T) {
	for _, tc := range []struct {
		keepNDirs int
		filePath  string
		expected  string
	}{
		{2, "a/b/c", "a/b/c"},
		{3, "x/y/c/d", "x/y/c/d"},
		{1, "x/y/z/e", "z/e"},
	} {
		testLogStripModuleDirPathPrefix(t, &ModuleDirPathCache{keepNDirs: tc.keepNDirs}, tc.filePath, tc.expected)
	}
}

func TestSetLoggerFromConfig(t *testing.T) {
	tlc := threadpool_testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	cfg, err := LoadConfig("", nil, []byte(`
threadpool_config:
  log_config:
    level: debug
    use_json: false
`))
	if err != nil {
		t.Fatal(err)
	}
	if err := SetLogger(cfg.LoggerConfig); err != nil {
		t.Fatal(err)
	}

	log := NewCompLogger("test")
	log.Debug("debug test")
	log.Info("info test")
	log.Warn("warn test")
	log.Error("error test")
}
