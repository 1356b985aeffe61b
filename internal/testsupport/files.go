package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// RendererScript mimics the renderer: it creates the file named by -od.
const RendererScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-od" ]; then out="$2"; fi
  shift
done
if [ -n "$out" ]; then
  mkdir -p "$(dirname "$out")" && : > "$out"
fi
echo "rendered $out"
exit 0
`

// FailingRendererScript always fails the way an aborted MPI job does.
const FailingRendererScript = `#!/bin/sh
echo "MPI_ABORT was invoked on rank 0" >&2
exit 1
`

// FFmpegScript creates the output file (the argument before -y) and reports
// progress on stdout.
const FFmpegScript = `#!/bin/sh
prev=""
out=""
for arg in "$@"; do
  if [ "$arg" = "-y" ]; then out="$prev"; fi
  prev="$arg"
done
echo "frame=1"
echo "progress=end"
if [ -n "$out" ]; then : > "$out"; fi
exit 0
`

// WriteExecutable writes script to dir/name with mode 0755 and returns the path.
func WriteExecutable(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteFrames creates empty frame_<n>.png files for frames [0, count).
func WriteFrames(t testing.TB, dir string, count int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for i := range count {
		path := filepath.Join(dir, "frame_"+strconv.Itoa(i)+".png")
		if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}
