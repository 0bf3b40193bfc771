package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linkedfactory/kvingo/internal/partitionkey"
)

func TestYearDirRoundTrip(t *testing.T) {
	min := partitionkey.New(1, 0, 0)
	max := partitionkey.New(5, 9, 9)
	name := FormatYearDir(min, max, 2024)
	yd, ok := ParseYearDir(name)
	if !ok {
		t.Fatalf("ParseYearDir(%q) failed", name)
	}
	if yd.Min != min || yd.Max != max || yd.Year != 2024 {
		t.Errorf("mismatch: %+v", yd)
	}
}

func TestWeekDirRoundTrip(t *testing.T) {
	min := partitionkey.New(1, 0, 0)
	max := partitionkey.New(1, 3, 0)
	name := FormatWeekDir(min, max)
	wd, ok := ParseWeekDir(name)
	if !ok {
		t.Fatalf("ParseWeekDir(%q) failed", name)
	}
	if wd.Min != min || wd.Max != max {
		t.Errorf("mismatch: %+v", wd)
	}
}

func TestParseYearDirSkipsMalformed(t *testing.T) {
	cases := []string{"not_a_key", "1_2", "1_2_abcd", "5_1_2024"}
	for _, c := range cases {
		if _, ok := ParseYearDir(c); ok {
			t.Errorf("ParseYearDir(%q): expected ok=false", c)
		}
	}
}

func TestParseWeekDirSkipsMalformed(t *testing.T) {
	cases := []string{"not_a_key", "5_1"}
	for _, c := range cases {
		if _, ok := ParseWeekDir(c); ok {
			t.Errorf("ParseWeekDir(%q): expected ok=false", c)
		}
	}
}

func TestItemInRange(t *testing.T) {
	yd, ok := ParseYearDir(FormatYearDir(partitionkey.New(2, 0, 0), partitionkey.New(8, 0, 0), 2024))
	if !ok {
		t.Fatal("setup parse failed")
	}
	if !yd.ItemInRange(5) {
		t.Error("expected 5 in range [2,8]")
	}
	if yd.ItemInRange(1) || yd.ItemInRange(9) {
		t.Error("expected 1 and 9 out of range")
	}
}

func TestListDirsSkipsMalformedAndMetadata(t *testing.T) {
	root := t.TempDir()
	valid := FormatYearDir(partitionkey.New(1, 0, 0), partitionkey.New(5, 0, 0), 2024)
	mustMkdir(t, filepath.Join(root, valid))
	mustMkdir(t, filepath.Join(root, MetadataDirName))
	mustMkdir(t, filepath.Join(root, TempDirName))
	mustMkdir(t, filepath.Join(root, "garbage"))

	dirs, err := ListYearDirs(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0].Name != valid {
		t.Fatalf("expected exactly one valid year dir, got %+v", dirs)
	}
}

func TestListYearDirsMissingRoot(t *testing.T) {
	dirs, err := ListYearDirs(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("expected nil error for missing root, got %v", err)
	}
	if dirs != nil {
		t.Fatalf("expected nil dirs, got %+v", dirs)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}
