package tfs

// pathCache maps an absolute path to its inode number. It is built once at
// mount by a full recursive walk from the root, then maintained
// incrementally by AddNode/RemoveNode. Its lifetime runs from Load through
// Destroy.
type pathCache map[string]int64

// buildCache performs the mount-time walk: a recursive descent from the
// root, visiting every directory's children.
func buildCache(img *image) (pathCache, error) {
	cache := make(pathCache)
	root := decodeInode(0, img.inodeRaw(0))
	if err := walkInto(img, cache, "/", root); err != nil {
		return nil, err
	}
	return cache, nil
}

func walkInto(img *image, cache pathCache, p string, node *Inode) error {
	cache[p] = node.Ino
	if !node.IsDir() {
		return nil
	}

	children, err := img.childrenInos(node)
	if err != nil {
		return err
	}
	for _, childIno := range children {
		child := decodeInode(childIno, img.inodeRaw(childIno))
		if err := walkInto(img, cache, joinPath(p, child.Name), child); err != nil {
			return err
		}
	}
	return nil
}

// joinPath appends name to the directory path p, both absolute. p is
// always "/"-rooted; root itself is "/".
func joinPath(p, name string) string {
	if p == "/" {
		return "/" + name
	}
	return p + "/" + name
}
