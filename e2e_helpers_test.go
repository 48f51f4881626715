//go:build !ci

package website_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	dockerImage           = "chromedp/headless-shell:stable"
	chromeContainerPrefix = "chrome-e2e-delaine-"
)

// newBrowserContext returns a chromedp context backed by a local Chrome when
// one is installed, otherwise by the headless-shell Docker image. The test
// is skipped when neither is available. The returned URL converter maps a
// local server URL to one the browser can reach.
func newBrowserContext(t *testing.T, timeout time.Duration) (context.Context, func(string) string) {
	t.Helper()

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
		convert     = func(u string) string { return u }
	)

	if path := findChrome(); path != "" {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.ExecPath(path),
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	} else {
		chromePort, err := getFreePort()
		if err != nil {
			t.Fatalf("Failed to allocate Chrome port: %v", err)
		}
		if err := startDockerChrome(t, chromePort); err != nil {
			t.Fatalf("Failed to start Docker Chrome: %v", err)
		}
		t.Cleanup(func() { stopDockerChrome(t, chromePort) })

		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), fmt.Sprintf("http://localhost:%d", chromePort))
		convert = convertURLForDockerChrome
	}

	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)

	t.Cleanup(func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
	})
	return ctx, convert
}

func findChrome() string {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// getFreePort asks the kernel for a free open port that is ready to use.
func getFreePort() (port int, err error) {
	var a *net.TCPAddr
	if a, err = net.ResolveTCPAddr("tcp", "localhost:0"); err == nil {
		var l *net.TCPListener
		if l, err = net.ListenTCP("tcp", a); err == nil {
			defer l.Close()
			return l.Addr().(*net.TCPAddr).Port, nil
		}
	}
	return
}

// startDockerChrome starts the chromedp headless-shell Docker container.
func startDockerChrome(t *testing.T, debugPort int) error {
	t.Helper()

	if _, err := exec.Command("docker", "version").CombinedOutput(); err != nil {
		t.Skip("Neither Chrome nor Docker available, skipping E2E test")
	}

	containerName := fmt.Sprintf("%s%d", chromeContainerPrefix, debugPort)
	_, _ = exec.Command("docker", "rm", "-f", containerName).CombinedOutput()

	if _, err := exec.Command("docker", "image", "inspect", dockerImage).CombinedOutput(); err != nil {
		t.Log("Pulling chromedp/headless-shell Docker image...")

		pullCtx, pullCancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer pullCancel()

		if output, err := exec.CommandContext(pullCtx, "docker", "pull", dockerImage).CombinedOutput(); err != nil {
			if pullCtx.Err() == context.DeadlineExceeded {
				t.Fatal("Docker pull timed out after 60 seconds")
			}
			t.Fatalf("Failed to pull Docker image: %v\nOutput: %s", err, output)
		}
	}

	// Linux shares the host network; macOS runs Docker in a VM, so map the
	// container's default 9222 instead.
	args := []string{"run", "-d", "--rm", "--memory", "512m", "--cpus", "0.5", "--name", containerName}
	if runtime.GOOS == "linux" {
		args = append(args, "--network", "host", dockerImage, fmt.Sprintf("--remote-debugging-port=%d", debugPort))
	} else {
		args = append(args, "-p", fmt.Sprintf("%d:9222", debugPort), dockerImage)
	}
	if _, err := exec.Command("docker", args...).Output(); err != nil {
		return fmt.Errorf("failed to start Chrome Docker container: %w", err)
	}

	chromeURL := fmt.Sprintf("http://localhost:%d/json/version", debugPort)
	httpClient := &http.Client{Timeout: 2 * time.Second}
	var lastErr error
	for i := 0; i < 120; i++ {
		resp, err := httpClient.Get(chromeURL)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}

	if output, err := exec.Command("docker", "logs", "--tail", "50", containerName).CombinedOutput(); err == nil && len(output) > 0 {
		t.Logf("Chrome container logs:\n%s", output)
	}
	_, _ = exec.Command("docker", "rm", "-f", containerName).CombinedOutput()
	return fmt.Errorf("Chrome failed to start within 60 seconds: %w", lastErr)
}

// stopDockerChrome stops and removes the Chrome Docker container.
func stopDockerChrome(t *testing.T, debugPort int) {
	t.Helper()

	containerName := fmt.Sprintf("%s%d", chromeContainerPrefix, debugPort)
	if output, err := exec.Command("docker", "rm", "-f", containerName).CombinedOutput(); err != nil {
		if !strings.Contains(string(output), "No such container") {
			t.Logf("Warning: Failed to remove Docker container: %v (output: %s)", err, output)
		}
	}
}

// convertURLForDockerChrome converts an httptest URL for Docker Chrome access.
func convertURLForDockerChrome(httptestURL string) string {
	host := "localhost"
	if runtime.GOOS != "linux" {
		host = "host.docker.internal"
	}
	url := strings.Replace(httptestURL, "127.0.0.1", host, 1)
	return strings.Replace(url, "[::1]", host, 1)
}
