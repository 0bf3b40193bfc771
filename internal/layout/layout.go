// Package layout names, parses, and navigates the archive's two-level
// year/week directory tree.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/linkedfactory/kvingo/internal/partitionkey"
)

// MetadataDirName holds the three id-mapping files.
const MetadataDirName = "metadata"

// TempDirName is the writer's working directory before a week/year roll
// renames it to its final partition-keyed name.
const TempDirName = "temp"

// DataFileName is the parquet file holding a week's rows.
const DataFileName = "data.parquet"

// YearDir describes a parsed `<min>_<max>_<YYYY>` directory name.
type YearDir struct {
	Min, Max partitionkey.Key
	Year     int
	Name     string
}

// WeekDir describes a parsed `<min>_<max>` directory name.
type WeekDir struct {
	Min, Max partitionkey.Key
	Name     string
}

// FormatYearDir renders a year directory name from its partition-key
// bounds and calendar year.
func FormatYearDir(min, max partitionkey.Key, year int) string {
	return fmt.Sprintf("%s_%s_%04d", min.String(), max.String(), year)
}

// FormatWeekDir renders a week directory name from its partition-key
// bounds.
func FormatWeekDir(min, max partitionkey.Key) string {
	return min.String() + "_" + max.String()
}

// ParseYearDir parses name as a year directory. It returns ok=false for
// any name that doesn't fit the `<min>_<max>_<YYYY>` shape, isn't
// decimal, or violates Min <= Max — spec.md §4.7/§6/§9 requires these be
// skipped silently rather than treated as a hard error.
func ParseYearDir(name string) (YearDir, bool) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return YearDir{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return YearDir{}, false
	}
	min, err := partitionkey.Parse(parts[0])
	if err != nil {
		return YearDir{}, false
	}
	max, err := partitionkey.Parse(parts[1])
	if err != nil {
		return YearDir{}, false
	}
	if max.Less(min) {
		return YearDir{}, false
	}
	return YearDir{Min: min, Max: max, Year: year, Name: name}, true
}

// ParseWeekDir parses name as a week directory, with the same tolerance
// rules as ParseYearDir.
func ParseWeekDir(name string) (WeekDir, bool) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) != 2 {
		return WeekDir{}, false
	}
	min, err := partitionkey.Parse(parts[0])
	if err != nil {
		return WeekDir{}, false
	}
	max, err := partitionkey.Parse(parts[1])
	if err != nil {
		return WeekDir{}, false
	}
	if max.Less(min) {
		return WeekDir{}, false
	}
	return WeekDir{Min: min, Max: max, Name: name}, true
}

// ItemInRange reports whether itemID falls within [Min.ItemID, Max.ItemID].
func (y YearDir) ItemInRange(itemID uint64) bool {
	return itemID >= y.Min.ItemID() && itemID <= y.Max.ItemID()
}

// ItemInRange reports whether itemID falls within [Min.ItemID, Max.ItemID].
func (w WeekDir) ItemInRange(itemID uint64) bool {
	return itemID >= w.Min.ItemID() && itemID <= w.Max.ItemID()
}

// Contains reports whether key lies within [Min, Max] under the full
// 24-byte (item, property, context) ordering.
func (y YearDir) Contains(key partitionkey.Key) bool {
	return !key.Less(y.Min) && !y.Max.Less(key)
}

// Contains reports whether key could plausibly lie within [Min, Max].
func (w WeekDir) Contains(key partitionkey.Key) bool {
	return !key.Less(w.Min) && !w.Max.Less(key)
}

// ListYearDirs lists and parses the year directories directly under root,
// skipping the metadata directory and any name that fails to parse.
// Results are sorted by Year, then by Min.
func ListYearDirs(root string) ([]YearDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []YearDir
	for _, e := range entries {
		if !e.IsDir() || e.Name() == MetadataDirName || e.Name() == TempDirName {
			continue
		}
		yd, ok := ParseYearDir(e.Name())
		if !ok {
			continue
		}
		dirs = append(dirs, yd)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].Year != dirs[j].Year {
			return dirs[i].Year < dirs[j].Year
		}
		return dirs[i].Min.Less(dirs[j].Min)
	})
	return dirs, nil
}

// ListWeekDirs lists and parses the week directories directly under a
// year directory, skipping any name that fails to parse.
func ListWeekDirs(yearPath string) ([]WeekDir, error) {
	entries, err := os.ReadDir(yearPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []WeekDir
	for _, e := range entries {
		if !e.IsDir() || e.Name() == TempDirName {
			continue
		}
		wd, ok := ParseWeekDir(e.Name())
		if !ok {
			continue
		}
		dirs = append(dirs, wd)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Min.Less(dirs[j].Min) })
	return dirs, nil
}

// DataFilePath returns the path to a week directory's row file.
func DataFilePath(root string, y YearDir, w WeekDir) string {
	return filepath.Join(root, y.Name, w.Name, DataFileName)
}

// MetadataPath returns the path to one of the three mapping files.
func MetadataPath(root, fileName string) string {
	return filepath.Join(root, MetadataDirName, fileName)
}
