package dto

// ShortenRequest is the body of the programmatic creation endpoint.
// URL validation beyond presence happens in the service so the error
// taxonomy stays in one place.
type ShortenRequest struct {
	URL   string `json:"url" binding:"required"`
	Alias string `json:"alias" binding:"omitempty,max=50"`
	Title string `json:"title" binding:"omitempty,max=200"`
}

type ShortenResponse struct {
	ShortCode   string `json:"shortCode"`
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
	QRCode      string `json:"qrCode"`
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type UpdateTargetURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// KeyCount is one row of a "top" breakdown, sorted descending by count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DayCount is one day's click total, dates ascending.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type LinkStats struct {
	TotalClicks     int64      `json:"totalClicks"`
	ClicksToday     int64      `json:"clicksToday"`
	ClicksThisWeek  int64      `json:"clicksThisWeek"`
	ClicksThisMonth int64      `json:"clicksThisMonth"`
	UniqueVisitors  int64      `json:"uniqueVisitors"`
	TopBrowsers     []KeyCount `json:"topBrowsers"`
	TopDevices      []KeyCount `json:"topDevices"`
	TopCountries    []KeyCount `json:"topCountries"`
	ClicksByDay     []DayCount `json:"clicksByDay"`
}

type UserStats struct {
	Username    string     `json:"username"`
	Plan        string     `json:"plan"`
	LinksLimit  int        `json:"linksLimit"`
	LinksUsed   int64      `json:"linksUsed"`
	TotalClicks int64      `json:"totalClicks"`
	ClicksByDay []DayCount `json:"clicksByDay"`
}

type QRResponse struct {
	ShortCode string `json:"shortCode"`
	ShortURL  string `json:"shortUrl"`
	QRCode    string `json:"qrCode"`
}
