package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Attune.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduledList returns pending scheduled notifications.
func (c *Client) ScheduledList() (*ScheduledListResponse, error) {
	var resp ScheduledListResponse
	if err := c.client.Call("Attune.ScheduledList", ScheduledListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleWindow books a nudge for the named window.
func (c *Client) ScheduleWindow(window string) (*ScheduleWindowResponse, error) {
	var resp ScheduleWindowResponse
	if err := c.client.Call("Attune.ScheduleWindow", ScheduleWindowRequest{Window: window}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ShowNudge runs the device-unlock delivery path immediately.
func (c *Client) ShowNudge() (*ShowNudgeResponse, error) {
	var resp ShowNudgeResponse
	if err := c.client.Call("Attune.ShowNudge", ShowNudgeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Respond routes a notification response through the daemon.
func (c *Client) Respond(notificationID int64, payload string) (*RespondResponse, error) {
	var resp RespondResponse
	req := RespondRequest{NotificationID: notificationID, Payload: payload}
	if err := c.client.Call("Attune.Respond", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReserveRange registers an identifier band for another producer.
func (c *Client) ReserveRange(start, end int64, owner string) (*ReserveRangeResponse, error) {
	var resp ReserveRangeResponse
	req := ReserveRangeRequest{Start: start, End: end, Owner: owner}
	if err := c.client.Call("Attune.ReserveRange", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analytics retrieves the response analytics counters.
func (c *Client) Analytics() (*AnalyticsResponse, error) {
	var resp AnalyticsResponse
	if err := c.client.Call("Attune.Analytics", AnalyticsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Attune.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OpenSettings fetches guidance for restoring notification permission.
func (c *Client) OpenSettings() (*OpenSettingsResponse, error) {
	var resp OpenSettingsResponse
	if err := c.client.Call("Attune.OpenSettings", OpenSettingsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Attune.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines starting at the given offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Attune.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Attune.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
