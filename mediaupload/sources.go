package mediaupload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/vspstream/go-mediaupload/mediaupload/network/chunkuploader"
)

// Source is an opened upload source.
type Source interface {
	chunkuploader.ChunkProvider
	Close() error
}

type sourceResolver struct {
	logger       log.Logger
	pathModifier pathutil.PathModifier
	pathChecker  pathutil.PathChecker
}

// ExpandSources resolves upload paths to the list of sources to upload, in order.
// Local paths may contain doublestar patterns and are made absolute; directories are skipped.
// s3://bucket/key sources are passed through unchanged.
func ExpandSources(paths []string, logger log.Logger) ([]string, error) {
	r := sourceResolver{
		logger:       logger,
		pathModifier: pathutil.NewPathModifier(),
		pathChecker:  pathutil.NewPathChecker(),
	}
	return r.expand(paths)
}

func (r sourceResolver) expand(paths []string) ([]string, error) {
	var expandedPaths []string
	for _, path := range paths {
		if chunkuploader.IsS3Source(path) || !strings.Contains(path, "*") {
			expandedPaths = append(expandedPaths, path)
			continue
		}

		base, pattern := doublestar.SplitPattern(path)
		absBase, err := r.pathModifier.AbsPath(base)
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(os.DirFS(absBase), pattern)
		if err != nil {
			r.logger.Warnf("Error in path pattern '%s': %s", path, err)
			continue
		}
		if len(matches) == 0 {
			r.logger.Warnf("No match for path pattern: %s", path)
			continue
		}

		for _, match := range matches {
			expandedPaths = append(expandedPaths, filepath.Join(base, match))
		}
	}

	var finalPaths []string
	seen := map[string]bool{}
	for _, path := range expandedPaths {
		if chunkuploader.IsS3Source(path) {
			finalPaths = append(finalPaths, path)
			continue
		}

		absPath, err := r.pathModifier.AbsPath(path)
		if err != nil {
			r.logger.Warnf("Failed to parse path %s, error: %s", path, err)
			continue
		}

		exists, err := r.pathChecker.IsPathExists(absPath)
		if err != nil {
			r.logger.Warnf("Failed to check path %s, error: %s", absPath, err)
		}
		if !exists {
			return nil, fmt.Errorf("source doesn't exist: %s", path)
		}

		isDir, err := r.pathChecker.IsDirExists(absPath)
		if err != nil {
			r.logger.Warnf("Failed to check path %s, error: %s", absPath, err)
		}
		if isDir {
			r.logger.Debugf("Skipping directory: %s", path)
			continue
		}

		if seen[absPath] {
			continue
		}
		seen[absPath] = true
		finalPaths = append(finalPaths, absPath)
	}

	return finalPaths, nil
}

// OpenSource opens a local file or an s3://bucket/key object for reading.
func OpenSource(ctx context.Context, source string, s3Config S3Config, logger log.Logger) (Source, error) {
	if chunkuploader.IsS3Source(source) {
		provider, err := chunkuploader.NewS3ChunkProvider(ctx, source, s3Config.Params(), logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}

	provider, err := chunkuploader.NewFileChunkProvider(source)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
