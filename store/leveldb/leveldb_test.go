package leveldb

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/bboxx/overwatch/store"
	"github.com/bboxx/overwatch/store/tests"
)

func TestStore(t *testing.T) {
	tests.Run(t, initStore, cleanStore)
}

func initStore(t *testing.T) store.Store {
	dir, err := ioutil.TempDir("", "overwatch-leveldb")
	if err != nil {
		t.Fatal(err)
	}

	s, err := New("leveldb:" + dir)
	if err != nil {
		t.Fatal(err)
	}

	dirs[s] = dir
	return s
}

func cleanStore(t *testing.T, s store.Store) {
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if dir, ok := dirs[s]; ok {
		delete(dirs, s)
		if err := os.RemoveAll(dir); err != nil {
			t.Fatal(err)
		}
	}
}

var dirs = map[store.Store]string{}
