package drive

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/imroc/req/v3"

	"github.com/forkedapp/forked/internal/utils"
	"github.com/forkedapp/forked/internal/version"
)

const (
	HeaderUserAgent      = "User-Agent"
	HeaderForkedVersion  = "X-Forked-Version"
	HeaderForkedDeviceId = "X-Forked-Device-Id"
)

const (
	v1Healthz    = "/healthz"
	v1Files      = "/api/v1/files"
	v1File       = "/api/v1/files/{id}"
	v1Containers = "/api/v1/containers"
	v1Container  = "/api/v1/containers/{id}"

	contentCacheSize = 256
	contentCacheTTL  = 15 * time.Minute
)

var ForkedUserAgent = fmt.Sprintf("Forked/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// tokenSource yields the current bearer token for an outgoing request.
// Tokens rotate under the credential manager, so the value is read per
// request, never captured at client construction.
type tokenSource func() string

// driveAPI is the data-plane client of the Forked Cloud API.
type driveAPI struct {
	client *req.Client

	// content responses cached by file id, revalidated with
	// If-None-Match so a 304 serves the cached payload.
	cache *expirable.LRU[string, *FileContentResponse]
}

func newDriveAPI(baseURL string, tokens tokenSource) *driveAPI {
	client := req.C().
		SetBaseURL(baseURL).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1*time.Second).
		SetUserAgent(ForkedUserAgent).
		SetCommonHeader(HeaderForkedVersion, version.Version).
		SetCommonHeader(HeaderForkedDeviceId, utils.HWID).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(marshalJSON).
		SetJsonUnmarshal(unmarshalJSON).
		OnBeforeRequest(func(c *req.Client, r *req.Request) error {
			if tok := tokens(); tok != "" {
				r.SetBearerAuthToken(tok)
			}
			return nil
		})

	return &driveAPI{
		client: client,
		cache:  expirable.NewLRU[string, *FileContentResponse](contentCacheSize, nil, contentCacheTTL),
	}
}

// Ping checks the API is reachable. Unauthenticated.
func (a *driveAPI) Ping(ctx context.Context) error {
	resp, err := a.client.R().
		SetContext(ctx).
		Get(v1Healthz)

	return apiError("ping", resp, err)
}

// ListFiles returns the metadata of every file of one content class in
// a container. Never the content itself.
func (a *driveAPI) ListFiles(ctx context.Context, params *ListFilesParams) (apiResp *ListFilesResponse, err error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("container", params.Container).
		SetQueryParam("class", params.Class).
		SetSuccessResult(&apiResp).
		Get(v1Files)

	if err := apiError("list files", resp, err); err != nil {
		return nil, err
	}

	return apiResp, nil
}

// GetFile downloads one file by its remote id, content included.
// Cached payloads are revalidated with If-None-Match; a 304 serves the
// cached copy without a second body transfer.
func (a *driveAPI) GetFile(ctx context.Context, id string) (apiResp *FileContentResponse, err error) {
	cached, hasCached := a.cache.Get(id)

	r := a.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetSuccessResult(&apiResp)
	if hasCached && cached.ETag != "" {
		r.SetHeader("If-None-Match", cached.ETag)
	}

	resp, err := r.Get(v1File)
	if err == nil && resp.StatusCode == http.StatusNotModified {
		return cached, nil
	}

	if err := apiError("get file", resp, err); err != nil {
		return nil, err
	}
	if apiResp == nil {
		return nil, fmt.Errorf("get file: empty response")
	}

	if apiResp.ETag != "" {
		a.cache.Add(id, apiResp)
	}

	return apiResp, nil
}

// PutFile uploads one file. The server creates or replaces by
// (container, class, name), so repeating an upload never duplicates.
func (a *driveAPI) PutFile(ctx context.Context, params *UploadParams) (apiResp *UploadResponse, err error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("container", params.Container).
		SetQueryParam("class", params.Class).
		SetQueryParam("lastModified", strconv.FormatInt(params.LastModified, 10)).
		SetRetryCount(0).
		SetFileBytes("file", params.Name, params.Content).
		SetSuccessResult(&apiResp).
		Put(v1Files)

	if err := apiError("put file", resp, err); err != nil {
		return nil, err
	}

	return apiResp, nil
}

// DeleteFile removes one file by its remote id.
func (a *driveAPI) DeleteFile(ctx context.Context, id string) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(v1File)

	return apiError("delete file", resp, err)
}

// ListContainers returns the containers the account can sync into.
func (a *driveAPI) ListContainers(ctx context.Context) (apiResp *ListContainersResponse, err error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp).
		Get(v1Containers)

	if err := apiError("list containers", resp, err); err != nil {
		return nil, err
	}

	return apiResp, nil
}

// CreateContainer makes a container, returning the existing one when
// the name is already taken.
func (a *driveAPI) CreateContainer(ctx context.Context, name string) (apiResp *ContainerInfo, err error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(&CreateContainerRequest{Name: name}).
		SetSuccessResult(&apiResp).
		Post(v1Containers)

	if err := apiError("create container", resp, err); err != nil {
		return nil, err
	}

	return apiResp, nil
}

// GetContainer fetches one container by id.
func (a *driveAPI) GetContainer(ctx context.Context, id string) (apiResp *ContainerInfo, err error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetSuccessResult(&apiResp).
		Get(v1Container)

	if err := apiError("get container", resp, err); err != nil {
		return nil, err
	}

	return apiResp, nil
}
