package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// MinFreeBytes is the free space below which uploads are considered at risk.
const MinFreeBytes uint64 = 2 << 30

// CheckDirectoryAccess passes when path is a directory the process can
// list and write into.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(problem string) Result {
		return Result{Name: name, Detail: path + ": " + problem}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("missing")
	case err != nil:
		return fail(err.Error())
	case !info.IsDir():
		return fail("not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("no read/write access (" + err.Error() + ")")
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckFreeSpace verifies that the filesystem holding path has at least min
// bytes available.
func CheckFreeSpace(name, path string, min uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free", humanize.IBytes(free))
	if free < min {
		return Result{Name: name, Detail: fmt.Sprintf("%s (below %s)", detail, humanize.IBytes(min))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// FreeBytes returns the bytes available to unprivileged users on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckBackend verifies that a remote lichtwerkd answers its health endpoint
// and accepts the token.
func CheckBackend(ctx context.Context, baseURL, token string) Result {
	res := Result{Name: "Backend"}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		res.Detail = "backend.url is not set"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/health", nil)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		res.Detail = describeDialError(base, err)
		return res
	}
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		res.Passed = true
		res.Detail = base
	case http.StatusUnauthorized, http.StatusForbidden:
		res.Detail = "rejected api token"
	default:
		res.Detail = fmt.Sprintf("%s answered %s", base, resp.Status)
	}
	return res
}

const backendTimeout = 5 * time.Second

func describeDialError(base string, err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Sprintf("%s did not answer within %s", base, backendTimeout)
	}
	return err.Error()
}
