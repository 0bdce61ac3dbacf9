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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// RuntimeKind names the platform the process runs on.
type RuntimeKind string

// Runtime kinds recognised by DetectRuntimeInfo.
const (
	RuntimeUnknown         RuntimeKind = ""
	RuntimeCloudFunctions  RuntimeKind = "cloud-functions"
	RuntimeCloudRunService RuntimeKind = "cloud-run"
	RuntimeCloudRunJob     RuntimeKind = "cloud-run-job"
	RuntimeAppEngine       RuntimeKind = "app-engine"
	RuntimeKubernetes      RuntimeKind = "kubernetes"
	RuntimeComputeEngine   RuntimeKind = "compute-engine"
)

// metadataTimeout bounds each metadata server lookup.
const metadataTimeout = 200 * time.Millisecond

// RuntimeInfo captures what slogchat knows about the hosting platform. It
// supplies the default application name and environment label of a
// [Handler].
type RuntimeInfo struct {
	Kind      RuntimeKind
	ProjectID string
	Service   string
	Version   string
	Zone      string
}

// AppName returns the best application name for the runtime: the platform
// service name, or the executable name when unknown.
func (i RuntimeInfo) AppName() string {
	if i.Service != "" {
		return i.Service
	}
	if len(os.Args) > 0 && os.Args[0] != "" {
		return filepath.Base(os.Args[0])
	}
	return "app"
}

// EnvironmentName returns the best environment label for the runtime: the
// project ID, the runtime kind, or "local".
func (i RuntimeInfo) EnvironmentName() string {
	switch {
	case i.ProjectID != "":
		return i.ProjectID
	case i.Kind != RuntimeUnknown:
		return string(i.Kind)
	default:
		return "local"
	}
}

var (
	runtimeInfo     RuntimeInfo
	runtimeInfoOnce sync.Once
)

// DetectRuntimeInfo inspects well-known environment variables and, on Google
// Cloud, the metadata server. Results are cached for reuse.
func DetectRuntimeInfo() RuntimeInfo {
	runtimeInfoOnce.Do(func() {
		runtimeInfo = detectRuntimeInfo(defaultMetadata{})
	})
	return runtimeInfo
}

// metadataSource is the subset of the metadata server slogchat reads.
type metadataSource interface {
	OnGCE() bool
	Get(ctx context.Context, key string) (string, error)
}

type defaultMetadata struct{}

func (defaultMetadata) OnGCE() bool { return metadata.OnGCE() }

func (defaultMetadata) Get(ctx context.Context, key string) (string, error) {
	switch key {
	case "project-id":
		return metadata.ProjectIDWithContext(ctx)
	case "zone":
		return metadata.ZoneWithContext(ctx)
	case "instance-name":
		return metadata.InstanceNameWithContext(ctx)
	default:
		return metadata.InstanceAttributeValueWithContext(ctx, key)
	}
}

// detectRuntimeInfo resolves the runtime from env first and consults md
// only for values the environment does not provide.
func detectRuntimeInfo(md metadataSource) RuntimeInfo {
	info := RuntimeInfo{
		ProjectID: normalizeProjectID(firstNonEmpty(
			trimmedEnv("SLOGCHAT_PROJECT_ID"),
			trimmedEnv("GOOGLE_CLOUD_PROJECT"),
			trimmedEnv("GCLOUD_PROJECT"),
			trimmedEnv("GCP_PROJECT"),
		)),
	}

	switch {
	case trimmedEnv("K_SERVICE") != "" && trimmedEnv("FUNCTION_TARGET") != "":
		info.Kind = RuntimeCloudFunctions
		info.Service = trimmedEnv("K_SERVICE")
		info.Version = trimmedEnv("K_REVISION")
	case trimmedEnv("K_SERVICE") != "" && trimmedEnv("K_REVISION") != "":
		info.Kind = RuntimeCloudRunService
		info.Service = trimmedEnv("K_SERVICE")
		info.Version = trimmedEnv("K_REVISION")
	case trimmedEnv("CLOUD_RUN_JOB") != "":
		info.Kind = RuntimeCloudRunJob
		info.Service = trimmedEnv("CLOUD_RUN_JOB")
		info.Version = trimmedEnv("CLOUD_RUN_EXECUTION")
	case trimmedEnv("GAE_SERVICE") != "" || trimmedEnv("GAE_VERSION") != "":
		info.Kind = RuntimeAppEngine
		info.Service = trimmedEnv("GAE_SERVICE")
		info.Version = trimmedEnv("GAE_VERSION")
		if info.ProjectID == "" {
			info.ProjectID = normalizeProjectID(trimmedEnv("GAE_APPLICATION"))
		}
	case trimmedEnv("KUBERNETES_SERVICE_HOST") != "":
		info.Kind = RuntimeKubernetes
		info.Service = firstNonEmpty(trimmedEnv("CONTAINER_NAME"), trimmedEnv("POD_NAME"))
	}

	if md == nil || !md.OnGCE() {
		return info
	}
	if info.Kind == RuntimeUnknown {
		info.Kind = RuntimeComputeEngine
		info.Service = lookupMetadata(md, "instance-name")
	}
	if info.ProjectID == "" {
		info.ProjectID = normalizeProjectID(lookupMetadata(md, "project-id"))
	}
	if info.Kind == RuntimeKubernetes && info.Service == "" {
		info.Service = lookupMetadata(md, "cluster-name")
	}
	info.Zone = lookupMetadata(md, "zone")
	return info
}

// lookupMetadata reads key with a short deadline, returning "" on failure.
func lookupMetadata(md metadataSource, key string) string {
	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()
	v, err := md.Get(ctx, key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// trimmedEnv reads an environment variable and trims surrounding whitespace.
func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// firstNonEmpty returns the first non-empty string after trimming whitespace.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// normalizeProjectID strips common prefixes and leading underscores from project IDs.
func normalizeProjectID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "projects/")
	id = strings.TrimPrefix(id, "PROJECTS/")
	id = strings.TrimPrefix(id, "_")
	return id
}
