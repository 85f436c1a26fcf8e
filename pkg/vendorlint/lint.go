// Package vendorlint checks dependency changes against approved vendor
// snapshots.
//
// When the Rust lockfile changes for a crate of interest, a matching snapshot
// directory must exist under the snapshot root, and its metadata must record
// the SHA-256 of the current lockfile. The lint fails closed: every violation
// is reported, and an unresolvable input is an error rather than a pass.
package vendorlint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"
)

var (
	lockNameRe    = regexp.MustCompile(`(?m)^\s*name\s*=\s*"([^"]+)"`)
	lockVersionRe = regexp.MustCompile(`(?m)^\s*version\s*=\s*"([^"]+)"`)
)

// DefaultBaseRef is the revision the current lockfile is compared against.
const DefaultBaseRef = "origin/main"

// Options configures a lint run.
type Options struct {
	// RepoRoot is the repository root containing the lockfile.
	RepoRoot string
	// LockfilePath is the lockfile path relative to RepoRoot.
	// Default: "Cargo.lock".
	LockfilePath string
	// CratesPath is the crates-of-interest YAML file.
	CratesPath string
	// SnapshotRoot is the directory of approved vendor snapshots, laid out
	// as <root>/<crate>/<version>/metadata.json.
	SnapshotRoot string
	// BaseRef is the git revision to diff against. Default: origin/main.
	BaseRef string
	// RequireFeatures promotes missing/empty features.txt from warning to
	// failure.
	RequireFeatures bool
}

// Result is the outcome of a lint run.
type Result struct {
	// Checked is the number of crate/version pairs examined.
	Checked int
	// Failures lists every violation found. Non-empty means the lint
	// failed.
	Failures []string
	// Warnings lists non-fatal findings.
	Warnings []string
	// SkipReason is set when the lint had nothing to check (lockfile
	// unchanged, or no crates of interest changed).
	SkipReason string
}

// OK reports whether the lint passed.
func (r *Result) OK() bool { return len(r.Failures) == 0 }

// snapshotMetadata is the approved-snapshot record for one crate version.
type snapshotMetadata struct {
	Crate           string `json:"crate"`
	Version         string `json:"version"`
	CargoLockSHA256 string `json:"cargo_lock_sha256"`
}

// LoadCratesOfInterest reads the crate names from the crates-of-interest
// YAML file. Both the list form ("- name") and the map form ("name:") under
// the "crates:" key are accepted; order is preserved and duplicates dropped.
func LoadCratesOfInterest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crates file: %w", err)
	}

	var doc struct {
		Crates yaml.Node `yaml:"crates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse crates file %s: %w", path, err)
	}

	var crates []string
	switch doc.Crates.Kind {
	case yaml.SequenceNode:
		for _, item := range doc.Crates.Content {
			if item.Value != "" {
				crates = append(crates, item.Value)
			}
		}
	case yaml.MappingNode:
		// Mapping content alternates key, value.
		for i := 0; i < len(doc.Crates.Content); i += 2 {
			if doc.Crates.Content[i].Value != "" {
				crates = append(crates, doc.Crates.Content[i].Value)
			}
		}
	}

	seen := make(map[string]bool, len(crates))
	ordered := make([]string, 0, len(crates))
	for _, crate := range crates {
		if seen[crate] {
			continue
		}
		seen[crate] = true
		ordered = append(ordered, crate)
	}
	return ordered, nil
}

// ParseLockPackages extracts the name -> version set mapping from a Cargo
// lockfile's [[package]] blocks.
func ParseLockPackages(lockText string) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	blocks := strings.Split(lockText, "[[package]]")
	for _, block := range blocks[1:] {
		nameMatch := lockNameRe.FindStringSubmatch(block)
		versionMatch := lockVersionRe.FindStringSubmatch(block)
		if nameMatch == nil || versionMatch == nil {
			continue
		}
		name := nameMatch[1]
		if out[name] == nil {
			out[name] = make(map[string]bool)
		}
		out[name][versionMatch[1]] = true
	}
	return out
}

// hashFile returns the hex SHA-256 of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// baseLockfile reads the lockfile contents at the base revision via go-git.
func baseLockfile(repoRoot, baseRef, lockfileRel string) (string, error) {
	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(baseRef))
	if err != nil {
		return "", fmt.Errorf("cannot resolve base ref %s: %w", baseRef, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("cannot read commit %s: %w", hash, err)
	}
	file, err := commit.File(filepath.ToSlash(lockfileRel))
	if err != nil {
		return "", fmt.Errorf("cannot read %s at %s: %w", lockfileRel, baseRef, err)
	}
	return file.Contents()
}

// Run executes the lint and returns its result. Unresolvable inputs (missing
// lockfile or crates file, unreadable base revision) are errors; found
// violations are reported in Result.Failures.
func Run(opts Options) (*Result, error) {
	if opts.LockfilePath == "" {
		opts.LockfilePath = "Cargo.lock"
	}
	if opts.BaseRef == "" {
		opts.BaseRef = DefaultBaseRef
	}

	lockPath := filepath.Join(opts.RepoRoot, opts.LockfilePath)
	currentLock, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, fmt.Errorf("lockfile not found: %w", err)
	}

	crates, err := LoadCratesOfInterest(opts.CratesPath)
	if err != nil {
		return nil, err
	}
	if len(crates) == 0 {
		return nil, fmt.Errorf("no crates listed in %s", opts.CratesPath)
	}

	oldLock, err := baseLockfile(opts.RepoRoot, opts.BaseRef, opts.LockfilePath)
	if err != nil {
		return nil, err
	}

	if oldLock == string(currentLock) {
		return &Result{SkipReason: "lockfile unchanged"}, nil
	}

	lockHash, err := hashFile(lockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash lockfile: %w", err)
	}

	oldPkgs := ParseLockPackages(oldLock)
	newPkgs := ParseLockPackages(string(currentLock))

	result := &Result{}
	for _, crate := range crates {
		newVersions := newPkgs[crate]
		if len(newVersions) == 0 {
			continue
		}
		var newOnly []string
		for version := range newVersions {
			if !oldPkgs[crate][version] {
				newOnly = append(newOnly, version)
			}
		}
		sort.Strings(newOnly)

		for _, version := range newOnly {
			result.Checked++
			result.checkSnapshot(opts, crate, version, lockHash)
		}
	}

	if result.Checked == 0 {
		result.SkipReason = "lockfile changed, but no crates of interest changed"
	}
	return result, nil
}

// checkSnapshot validates the approved snapshot for one new crate version.
func (r *Result) checkSnapshot(opts Options, crate, version, lockHash string) {
	snapDir := filepath.Join(opts.SnapshotRoot, crate, version)
	mdPath := filepath.Join(snapDir, "metadata.json")

	data, err := os.ReadFile(mdPath)
	if err != nil {
		r.Failures = append(r.Failures, fmt.Sprintf("missing snapshot: %s", mdPath))
		return
	}

	var md snapshotMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		r.Failures = append(r.Failures, fmt.Sprintf("invalid JSON in %s: %v", mdPath, err))
		return
	}

	if md.Crate != crate || md.Version != version {
		r.Failures = append(r.Failures,
			fmt.Sprintf("snapshot metadata crate/version mismatch for %s %s", crate, version))
	}
	if md.CargoLockSHA256 != lockHash {
		r.Failures = append(r.Failures,
			fmt.Sprintf("snapshot lock hash mismatch for %s %s: metadata has %s, expected %s",
				crate, version, md.CargoLockSHA256, lockHash))
	}

	featuresPath := filepath.Join(snapDir, "features.txt")
	contents, err := os.ReadFile(featuresPath)
	msg := ""
	if err != nil {
		msg = fmt.Sprintf("missing features.txt for %s %s", crate, version)
	} else if strings.TrimSpace(string(contents)) == "" {
		msg = fmt.Sprintf("empty features.txt for %s %s", crate, version)
	}
	if msg != "" {
		if opts.RequireFeatures {
			r.Failures = append(r.Failures, msg)
		} else {
			r.Warnings = append(r.Warnings, msg)
		}
	}
}
