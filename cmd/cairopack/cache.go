package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/chazu/cairopack/store"
)

// maintainCache prints cache statistics, emptying the cache first when
// empty is set.
func maintainCache(path string, empty bool, out io.Writer) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	keys, err := s.Keys()
	if err != nil {
		return err
	}
	if empty {
		for _, k := range keys {
			if err := s.Delete(k); err != nil {
				return err
			}
		}
		log.Infof("removed %d artifacts from %s", len(keys), s.Path())
		keys = nil
	}

	size, err := s.Size()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d artifacts, %s\n", s.Path(), len(keys), humanize.Bytes(uint64(size)))
	for _, k := range keys {
		log.Debugf("cached %s", k)
	}
	return nil
}
