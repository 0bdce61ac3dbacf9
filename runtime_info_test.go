// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package slogchat

import (
	"context"
	"errors"
	"testing"
)

type stubMetadata struct {
	onGCE  bool
	values map[string]string
}

// OnGCE reports whether the stub considers metadata available.
func (s *stubMetadata) OnGCE() bool { return s.onGCE }

// Get returns the stubbed metadata value or signals absence.
func (s *stubMetadata) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", errors.New("metadata not found")
}

// clearRuntimeEnv blanks every variable detectRuntimeInfo reads.
func clearRuntimeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SLOGCHAT_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT",
		"K_SERVICE", "K_REVISION", "FUNCTION_TARGET", "CLOUD_RUN_JOB", "CLOUD_RUN_EXECUTION",
		"GAE_SERVICE", "GAE_VERSION", "GAE_APPLICATION", "KUBERNETES_SERVICE_HOST",
		"CONTAINER_NAME", "POD_NAME",
	} {
		t.Setenv(key, "")
	}
}

// TestDetectRuntimeInfoCloudRunService verifies Cloud Run variables populate the service.
func TestDetectRuntimeInfoCloudRunService(t *testing.T) {
	clearRuntimeEnv(t)
	t.Setenv("K_SERVICE", "billing")
	t.Setenv("K_REVISION", "billing-00042")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "projects/my-project")

	info := detectRuntimeInfo(&stubMetadata{})
	if info.Kind != RuntimeCloudRunService {
		t.Fatalf("Kind = %q, want %q", info.Kind, RuntimeCloudRunService)
	}
	if info.ProjectID != "my-project" {
		t.Fatalf("ProjectID = %q, want %q", info.ProjectID, "my-project")
	}
	if got := info.AppName(); got != "billing" {
		t.Fatalf("AppName() = %q, want %q", got, "billing")
	}
	if got := info.EnvironmentName(); got != "my-project" {
		t.Fatalf("EnvironmentName() = %q, want %q", got, "my-project")
	}
}

// TestDetectRuntimeInfoCloudFunctions prefers the functions runtime over Cloud Run.
func TestDetectRuntimeInfoCloudFunctions(t *testing.T) {
	clearRuntimeEnv(t)
	t.Setenv("K_SERVICE", "fn")
	t.Setenv("K_REVISION", "fn-1")
	t.Setenv("FUNCTION_TARGET", "Entry")

	info := detectRuntimeInfo(nil)
	if info.Kind != RuntimeCloudFunctions {
		t.Fatalf("Kind = %q, want %q", info.Kind, RuntimeCloudFunctions)
	}
	if got := info.EnvironmentName(); got != string(RuntimeCloudFunctions) {
		t.Fatalf("EnvironmentName() = %q, want runtime kind", got)
	}
}

// TestDetectRuntimeInfoAppEngineProject strips the App Engine partition prefix.
func TestDetectRuntimeInfoAppEngineProject(t *testing.T) {
	clearRuntimeEnv(t)
	t.Setenv("GAE_SERVICE", "default")
	t.Setenv("GAE_APPLICATION", "_gae-project")

	info := detectRuntimeInfo(nil)
	if info.Kind != RuntimeAppEngine || info.ProjectID != "gae-project" {
		t.Fatalf("info = %+v, want app engine in gae-project", info)
	}
}

// TestDetectRuntimeInfoComputeEngine falls back to the metadata server.
func TestDetectRuntimeInfoComputeEngine(t *testing.T) {
	clearRuntimeEnv(t)

	md := &stubMetadata{onGCE: true, values: map[string]string{
		"project-id":    "gce-project",
		"zone":          "us-central1-a",
		"instance-name": "worker-1",
	}}
	info := detectRuntimeInfo(md)
	want := RuntimeInfo{
		Kind:      RuntimeComputeEngine,
		ProjectID: "gce-project",
		Service:   "worker-1",
		Zone:      "us-central1-a",
	}
	if info != want {
		t.Fatalf("detectRuntimeInfo() = %+v, want %+v", info, want)
	}
}

// TestDetectRuntimeInfoKubernetesClusterName uses the cluster name when no container is named.
func TestDetectRuntimeInfoKubernetesClusterName(t *testing.T) {
	clearRuntimeEnv(t)
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "k8s-project")

	md := &stubMetadata{onGCE: true, values: map[string]string{
		"cluster-name": "prod-cluster",
		"project-id":   "ignored",
	}}
	info := detectRuntimeInfo(md)
	if info.Kind != RuntimeKubernetes {
		t.Fatalf("Kind = %q, want %q", info.Kind, RuntimeKubernetes)
	}
	if info.Service != "prod-cluster" {
		t.Fatalf("Service = %q, want %q", info.Service, "prod-cluster")
	}
	if info.ProjectID != "k8s-project" {
		t.Fatalf("ProjectID = %q, want env value", info.ProjectID)
	}
}

// TestRuntimeInfoDefaults covers the local fallbacks.
func TestRuntimeInfoDefaults(t *testing.T) {
	t.Parallel()

	var info RuntimeInfo
	if got := info.EnvironmentName(); got != "local" {
		t.Fatalf("EnvironmentName() = %q, want %q", got, "local")
	}
	if got := info.AppName(); got == "" {
		t.Fatalf("AppName() returned empty string")
	}
}

// TestNormalizeProjectID trims prefixes used by various platforms.
func TestNormalizeProjectID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  my-project ":      "my-project",
		"projects/proj-1":    "proj-1",
		"_appengine-project": "appengine-project",
		"":                   "",
	}
	for in, want := range cases {
		if got := normalizeProjectID(in); got != want {
			t.Errorf("normalizeProjectID(%q) = %q, want %q", in, got, want)
		}
	}
}
