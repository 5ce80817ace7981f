package drive

// Identity endpoints

type DeviceAuthRequest struct {
	ClientID string `json:"clientId"`
	Email    string `json:"email,omitempty"`
}

type DeviceAuthResponse struct {
	DeviceCode      string `json:"deviceCode"`
	UserCode        string `json:"userCode"`
	VerificationURL string `json:"verificationUrl"`
	ExpiresIn       int64  `json:"expiresIn"` // seconds
	Interval        int64  `json:"interval"`  // polling interval, seconds
}

type DeviceTokenRequest struct {
	ClientID   string `json:"clientId"`
	DeviceCode string `json:"deviceCode"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RevokeTokenRequest struct {
	Token string `json:"token"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"` // seconds until the access token expires
}

type WhoAmIResponse struct {
	Email string `json:"email"`
}

// File endpoints

type FileInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastModified int64  `json:"lastModified"` // ms since epoch
	Size         int64  `json:"size"`
	ETag         string `json:"etag,omitempty"`
}

type ListFilesParams struct {
	Container string
	Class     string
}

type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
}

type FileContentResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Content      []byte `json:"content"`
	LastModified int64  `json:"lastModified"`
	ETag         string `json:"etag,omitempty"`
}

type UploadParams struct {
	Container    string
	Class        string
	Name         string
	Content      []byte
	LastModified int64
}

type UploadResponse struct {
	File FileInfo `json:"file"`
}

// Container endpoints

type ContainerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListContainersResponse struct {
	Containers []ContainerInfo `json:"containers"`
}

type CreateContainerRequest struct {
	Name string `json:"name"`
}
