//go:build linux

package scc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSystemctl routes execCommand calls to canned outputs keyed by the
// joined argument list
type fakeSystemctl struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeSystemctl) run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return "", err
	}
	return f.outputs[key], nil
}

func newTestSystemd(fake *fakeSystemctl) *Systemd {
	s := NewSystemd()
	s.UseSudo = false
	s.PollInterval = time.Millisecond
	s.execCommand = fake.run
	return s
}

func TestUnitName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"nginx", "nginx.service"},
		{"nginx.service", "nginx.service"},
		{"network.target", "network.target"},
		{"dev-sda.device", "dev-sda.device"},
	}
	for _, tt := range tests {
		if got := unitName(tt.in); got != tt.want {
			t.Errorf("unitName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseShowOutput(t *testing.T) {
	out := "ActiveState=active\nSubState=running\nDescription=The nginx server\n\n"
	props := parseShowOutput(out)
	assert.Equal(t, "active", props["ActiveState"])
	assert.Equal(t, "running", props["SubState"])
	assert.Equal(t, "The nginx server", props["Description"])
}

func TestMapSystemdState(t *testing.T) {
	tests := []struct {
		active, sub string
		want        State
	}{
		{"active", "running", StateRunning},
		{"active", "exited", StateRunning},
		{"reloading", "reload", StateRunning},
		{"activating", "start", StateStartPending},
		{"deactivating", "stop-sigterm", StateStopPending},
		{"inactive", "dead", StateStopped},
		{"failed", "failed", StateStopped},
		{"maintenance", "", StateUnknown},
	}
	for _, tt := range tests {
		if got := mapSystemdState(tt.active, tt.sub); got != tt.want {
			t.Errorf("mapSystemdState(%q, %q) = %v, want %v", tt.active, tt.sub, got, tt.want)
		}
	}
}

func TestSystemdStatus(t *testing.T) {
	fake := &fakeSystemctl{outputs: map[string]string{
		"systemctl show --no-page -p ActiveState -p SubState nginx.service": "ActiveState=active\nSubState=running\n",
	}}
	s := newTestSystemd(fake)

	state, err := s.Status(context.Background(), "nginx")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)
}

func TestSystemdKind(t *testing.T) {
	fake := &fakeSystemctl{outputs: map[string]string{
		"systemctl show --no-page -p LoadState nginx.service":  "LoadState=loaded\n",
		"systemctl show --no-page -p LoadState network.target": "LoadState=loaded\n",
		"systemctl show --no-page -p LoadState dev-sda.device": "LoadState=loaded\n",
		"systemctl show --no-page -p LoadState ghost.service":  "LoadState=not-found\n",
	}}
	s := newTestSystemd(fake)
	ctx := context.Background()

	kind, err := s.Kind(ctx, "nginx")
	require.NoError(t, err)
	assert.Equal(t, KindProcess, kind)

	kind, err = s.Kind(ctx, "network.target")
	require.NoError(t, err)
	assert.Equal(t, KindOther, kind)

	kind, err = s.Kind(ctx, "dev-sda.device")
	require.NoError(t, err)
	assert.Equal(t, KindDriver, kind)

	_, err = s.Kind(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestSystemdEdges(t *testing.T) {
	fake := &fakeSystemctl{outputs: map[string]string{
		"systemctl show --no-page -p Requires web.service":  "Requires=db.service cache.service\n",
		"systemctl show --no-page -p RequiredBy db.service": "RequiredBy=web.service worker.service\n",
	}}
	s := newTestSystemd(fake)
	ctx := context.Background()

	deps, err := s.Dependencies(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, []string{"db.service", "cache.service"}, deps)

	dependents, err := s.Dependents(ctx, "db")
	require.NoError(t, err)
	assert.Equal(t, []string{"web.service", "worker.service"}, dependents)
}

func TestSystemdStartStopNoBlock(t *testing.T) {
	fake := &fakeSystemctl{outputs: map[string]string{}}
	s := newTestSystemd(fake)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, "nginx"))
	require.NoError(t, s.Stop(ctx, "nginx"))
	assert.Equal(t, []string{
		"systemctl start --no-block nginx.service",
		"systemctl stop --no-block nginx.service",
	}, fake.calls)
}

func TestSystemdDisplayName(t *testing.T) {
	fake := &fakeSystemctl{outputs: map[string]string{
		"systemctl show --no-page -p Description nginx.service": "Description=The nginx server\n",
		"systemctl show --no-page -p Description bare.service":  "Description=\n",
	}}
	s := newTestSystemd(fake)
	ctx := context.Background()

	name, err := s.DisplayName(ctx, "nginx")
	require.NoError(t, err)
	assert.Equal(t, "The nginx server", name)

	name, err = s.DisplayName(ctx, "bare")
	require.NoError(t, err)
	assert.Equal(t, "bare", name, "falls back to the unit name")
}

func TestSystemdAwaitState(t *testing.T) {
	t.Run("timeout returns last state", func(t *testing.T) {
		fake := &fakeSystemctl{outputs: map[string]string{
			"systemctl show --no-page -p ActiveState -p SubState slow.service": "ActiveState=activating\nSubState=start\n",
		}}
		s := newTestSystemd(fake)

		state, err := s.AwaitState(context.Background(), "slow", StateRunning, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, StateStartPending, state)
	})

	t.Run("propagates backend failure", func(t *testing.T) {
		boom := errors.New("dbus is down")
		fake := &fakeSystemctl{
			outputs: map[string]string{},
			errs: map[string]error{
				"systemctl show --no-page -p ActiveState -p SubState bad.service": boom,
			},
		}
		s := newTestSystemd(fake)

		_, err := s.AwaitState(context.Background(), "bad", StateRunning, 10*time.Millisecond)
		assert.ErrorIs(t, err, boom)
	})
}
