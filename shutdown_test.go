package pubship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StopWaitCoversFinalFlush(t *testing.T) {
	settings := DefaultSettings()
	settings.Email = "svc@proj1.iam.gserviceaccount.com"
	settings.PrivateKeyPath = "/keys/svc.p12"
	settings.Project = "proj1"
	settings.Topic = "logs"

	tests := []struct {
		name  string
		agent AgentConfig
		want  time.Duration
	}{
		{"default flush timeout", AgentConfig{}, 30*time.Second + shutdownMargin},
		{"longer flush timeout", AgentConfig{ShutdownTimeout: 45 * time.Second}, 45*time.Second + shutdownMargin},
		{"shorter flush timeout", AgentConfig{ShutdownTimeout: time.Second}, time.Second + shutdownMargin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(settings, nil, WithAgentConfig(tt.agent))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.shutdownWait)
		})
	}
}
