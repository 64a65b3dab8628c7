package appxxml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/frantjc/appx"
	"github.com/frantjc/appx/internal/appxregexp"
)

// Engine is the base merge engine: it owns the file I/O and XML
// splicing that the platform mungers layer their transformations on
// top of. Dir is the project directory the target file names of
// munges are resolved against.
type Engine struct {
	Dir string
}

// GeneratePluginConfigMunge turns a flat change list into a Munge
// grouped by parent selector, substituting vars into each fragment
// template first. Changes default to a count of one.
func (e *Engine) GeneratePluginConfigMunge(changes []appx.Change, pluginID string, vars map[string]string) (*appx.Munge, error) {
	munge := appx.NewMunge()

	for _, change := range changes {
		change = change.Clone()
		change.XML = Substitute(change.XML, vars)
		if change.Count == 0 {
			change.Count = 1
		}

		munge.Add(change.Parent, change)
	}

	return munge, nil
}

// Substitute replaces $VAR and $(VAR) references in the fragment with
// values from vars. References to variables not in vars are left
// verbatim.
func Substitute(fragment string, vars map[string]string) string {
	return appxregexp.Variable.ReplaceAllStringFunc(fragment, func(ref string) string {
		name := strings.Trim(ref, "$()")
		if value, ok := vars[name]; ok {
			return value
		}

		return ref
	})
}

// ApplyFileMunge splices the munge's fragments into the named
// manifest file, or prunes them back out of it, and writes the file
// back in place. Selectors are processed in sorted order so repeated
// runs touch the document identically.
func (e *Engine) ApplyFileMunge(ctx context.Context, file string, munge *appx.Munge, remove bool) error {
	var (
		log  = appx.LoggerFrom(ctx)
		path = filepath.Join(e.Dir, file)
	)

	doc, err := decodeFile(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	selectors := make([]string, 0, len(munge.Parents))
	for selector := range munge.Parents {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)

	for _, selector := range selectors {
		changes := munge.Parents[selector]
		if len(changes) == 0 {
			continue
		}

		parent, err := doc.Resolve(selector)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		for _, change := range changes {
			children, err := ParseFragment(change.XML)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			if remove {
				log.V(1).Info("pruning fragment", "file", file, "parent", selector)
				doc.Prune(parent, children)
			} else {
				log.V(1).Info("grafting fragment", "file", file, "parent", selector)
				parent.Graft(children, change.Before)
			}
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = doc.Encode(out); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

func decodeFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}
