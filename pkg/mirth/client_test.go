package mirth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-mirth/pkg/mirth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannelID = "493d666a-1242-46a2-8425-b061e215884c"

const loginSuccessXML = `<com.mirth.connect.model.LoginStatus>
	<status>SUCCESS</status>
	<updatedUsername>admin</updatedUsername>
</com.mirth.connect.model.LoginStatus>`

const loginFailureXML = `<com.mirth.connect.model.LoginStatus>
	<status>FAIL</status>
	<message>Incorrect username or password.</message>
</com.mirth.connect.model.LoginStatus>`

// newTestClient points a client at a stub engine. Handlers run on the
// server goroutine, so they assert rather than require.
func newTestClient(t *testing.T, handler http.Handler, serverVersion string) *mirth.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := mirth.NewClient(&mirth.Config{
		BaseURL:       server.URL,
		ServerVersion: serverVersion,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *mirth.Config
	}{
		{"nil config", nil},
		{"empty base URL", &mirth.Config{}},
		{"unsupported scheme", &mirth.Config{BaseURL: "ftp://mirth.example.com"}},
		{"unparseable server version", &mirth.Config{BaseURL: "http://mirth.example.com", ServerVersion: "potato"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mirth.NewClient(tc.cfg, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestClient_LoginTracksSession(t *testing.T) {
	const sessionID = "node01s8oir0ry6yik"

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/_login", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "admin", r.PostFormValue("username"))
		assert.Equal(t, "secret", r.PostFormValue("password"))
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: sessionID, Path: "/"})
		_, _ = w.Write([]byte(loginSuccessXML))
	})
	mux.HandleFunc("GET /channels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))
		cookie, err := r.Cookie("JSESSIONID")
		if assert.NoError(t, err, "the session cookie accompanies calls after login") {
			assert.Equal(t, sessionID, cookie.Value)
		}
		_, _ = w.Write([]byte(channelListXML))
	})
	client := newTestClient(t, mux, "")

	status, err := client.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, mirth.LoginStatusSuccess, status.Status)

	channels, err := client.Channels(context.Background())
	require.NoError(t, err)
	assert.Len(t, channels, 2)
}

func TestClient_LoginFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/_login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(loginFailureXML))
	})
	client := newTestClient(t, mux, "")

	_, err := client.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)

	var loginErr *mirth.LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, "FAIL", loginErr.Status)
	require.NotNil(t, loginErr.Message)
	assert.Equal(t, "Incorrect username or password.", *loginErr.Message)
}

func TestClient_ChannelsByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(channelListXML))
	})
	client := newTestClient(t, mux, "")

	matched, err := client.ChannelsByName(context.Background(), "Channel 2")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, uuid.MustParse("493d666a-1242-46a2-8425-b061e215884d"), matched[0].ID)

	matched, err = client.ChannelsByName(context.Background(), "No Such Channel")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestClient_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "java.lang.RuntimeException: boom", http.StatusInternalServerError)
	})
	client := newTestClient(t, mux, "")

	_, err := client.Channels(context.Background())
	require.Error(t, err)

	var apiErr *mirth.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "boom")
}

func TestChannelService_Info(t *testing.T) {
	channelXML := `<channel version="3.12.0">
		<id>` + testChannelID + `</id>
		<name>Channel 1</name>
		<description>An example channel.</description>
		<revision>4</revision>
	</channel>`

	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/"+testChannelID, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(channelXML))
	})
	client := newTestClient(t, mux, "")

	channel, err := client.Channel(uuid.MustParse(testChannelID)).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Channel 1", channel.Name)
	assert.Equal(t, "4", channel.Revision)
}

func TestChannelService_Statistics(t *testing.T) {
	statsXML := `<channelStatistics>
		<serverId>4975776f-deb5-4ac6-ba3c-60b27198983d</serverId>
		<channelId>` + testChannelID + `</channelId>
		<received>10</received>
		<sent>9</sent>
		<error>1</error>
		<filtered>0</filtered>
		<queued>0</queued>
	</channelStatistics>`

	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/"+testChannelID+"/statistics", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(statsXML))
	})
	client := newTestClient(t, mux, "")

	stats, err := client.Channel(uuid.MustParse(testChannelID)).Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Received)
	assert.Equal(t, int64(1), stats.Error)
}

func TestClient_Statistics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/statistics", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(statisticsListXML))
	})
	client := newTestClient(t, mux, "")

	stats, err := client.Statistics(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

func TestClient_DashboardStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/statuses", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(dashboardListXML))
	})
	client := newTestClient(t, mux, "")

	statuses, err := client.DashboardStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, mirth.StateStarted, statuses[0].State)
}

func TestClient_Groups(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channelgroups", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(groupListXML))
	})
	client := newTestClient(t, mux, "")

	groups, err := client.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Inbound", groups[0].Name)
	assert.Len(t, groups[0].Channels, 2)
}

func TestClient_Events(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "10", q.Get("offset"))
		assert.Equal(t, "ERROR", q.Get("level"))
		assert.Equal(t, "1", q.Get("userId"))
		assert.False(t, q.Has("outcome"), "unset filters stay out of the query")
		assert.False(t, q.Has("name"))
		_, _ = w.Write([]byte("<list>" + eventXML + "</list>"))
	})
	client := newTestClient(t, mux, "")

	userID := 1
	events, err := client.Events(context.Background(), mirth.EventFilter{
		Limit:  5,
		Offset: 10,
		Level:  mirth.LevelError,
		UserID: &userID,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(42), events[0].ID)
}

func TestClient_Events_InvalidFilter(t *testing.T) {
	var called bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_, _ = w.Write([]byte(`<list/>`))
	})
	client := newTestClient(t, mux, "")

	_, err := client.Events(context.Background(), mirth.EventFilter{Level: "NOISY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event filter")
	assert.False(t, called, "a rejected filter never reaches the server")
}

func TestClient_Event(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/42", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(eventXML))
	})
	client := newTestClient(t, mux, "")

	event, err := client.Event(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "User logged in", event.Name)
}

func TestChannelService_Messages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/"+testChannelID+"/messages", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("limit"), "limit defaults when unset")
		assert.Equal(t, "0", q.Get("offset"))
		assert.Equal(t, "false", q.Get("includeContent"))
		assert.Equal(t, []string{"ERROR", "QUEUED"}, q["status"], "statuses are upper-cased")
		_, _ = w.Write([]byte(`<list/>`))
	})
	client := newTestClient(t, mux, "")

	filter := mirth.MessageFilter{Status: []string{"error", "queued"}}
	messages, err := client.Channel(uuid.MustParse(testChannelID)).Messages(context.Background(), filter)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
	assert.Equal(t, []string{"error", "queued"}, filter.Status, "caller's filter must not be rewritten")
}

func TestChannelService_Messages_InvalidFilter(t *testing.T) {
	var called bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/"+testChannelID+"/messages", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_, _ = w.Write([]byte(`<list/>`))
	})
	client := newTestClient(t, mux, "")

	_, err := client.Channel(uuid.MustParse(testChannelID)).Messages(context.Background(), mirth.MessageFilter{
		Status: []string{"MISPLACED"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid message filter")
	assert.False(t, called)
}

func TestChannelService_Message_NotStored(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/"+testChannelID+"/messages/99", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("includeContent"))
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, mux, "")

	message, err := client.Channel(uuid.MustParse(testChannelID)).Message(context.Background(), 99, false)
	require.NoError(t, err)
	assert.Nil(t, message, "an empty reply means the engine no longer holds the message")
}

func TestChannelService_PreviewMessage(t *testing.T) {
	previewXML := `<list>
		<message>
			<messageId>9</messageId>
			<serverId>4975776f-deb5-4ac6-ba3c-60b27198983d</serverId>
			<channelId>` + testChannelID + `</channelId>
			<processed>true</processed>
			<receivedDate><time>1643708252777</time></receivedDate>
		</message>
	</list>`

	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/"+testChannelID+"/messages", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "9", q.Get("minMessageId"))
		assert.Equal(t, "9", q.Get("maxMessageId"))
		_, _ = w.Write([]byte(previewXML))
	})
	client := newTestClient(t, mux, "")

	message, err := client.Channel(uuid.MustParse(testChannelID)).PreviewMessage(context.Background(), 9)
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, int64(9), message.MessageID)
}

// storedMessageXML is the engine's stored view of a posted message, one
// source leg with the supplied status and optional response content.
func storedMessageXML(messageID, status, responseContent string) string {
	response := ""
	if responseContent != "" {
		response = `<response>
			<channelId>` + testChannelID + `</channelId>
			<content>` + responseContent + `</content>
			<contentType>RESPONSE</contentType>
			<encrypted>false</encrypted>
			<messageId>` + messageID + `</messageId>
		</response>`
	}
	return `<message>
		<messageId>` + messageID + `</messageId>
		<serverId>4975776f-deb5-4ac6-ba3c-60b27198983d</serverId>
		<channelId>` + testChannelID + `</channelId>
		<processed>true</processed>
		<receivedDate><time>1643708252777</time></receivedDate>
		<connectorMessages>
			<entry>
				<int>0</int>
				<connectorMessage>
					<chainId>0</chainId>
					<orderId>0</orderId>
					<serverId>4975776f-deb5-4ac6-ba3c-60b27198983d</serverId>
					<channelId>` + testChannelID + `</channelId>
					<channelName>Channel 1</channelName>
					<messageId>` + messageID + `</messageId>
					<errorCode>1</errorCode>
					<sendAttempts>1</sendAttempts>
					<status>` + status + `</status>
					<receivedDate><time>1643708252777</time></receivedDate>
					<metaDataId>0</metaDataId>
					<metaDataMap/>
					` + response + `
				</connectorMessage>
			</entry>
		</connectorMessages>
	</message>`
}

func TestChannelService_PostMessage_VersionGate(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		wantPath string
	}{
		{"modern server takes the object endpoint", "3.12.0", "messagesWithObj"},
		{"older server takes the plain endpoint", "3.6.0", "messages"},
		{"unknown version stays on the plain endpoint", "", "messages"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var postedTo string
			post := func(w http.ResponseWriter, r *http.Request, path string) {
				postedTo = path
				assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))
				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				assert.Contains(t, string(body), "com.mirth.connect.donkey.model.message.RawMessage")
				_, _ = w.Write([]byte(`<long>5</long>`))
			}

			mux := http.NewServeMux()
			mux.HandleFunc("POST /channels/"+testChannelID+"/messages", func(w http.ResponseWriter, r *http.Request) {
				post(w, r, "messages")
			})
			mux.HandleFunc("POST /channels/"+testChannelID+"/messagesWithObj", func(w http.ResponseWriter, r *http.Request) {
				post(w, r, "messagesWithObj")
			})
			mux.HandleFunc("GET /channels/"+testChannelID+"/messages/5", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "true", r.URL.Query().Get("includeContent"))
				_, _ = w.Write([]byte(storedMessageXML("5", mirth.StatusSent, "")))
			})
			client := newTestClient(t, mux, tc.version)

			data := "MSH|^~\\&|SEND"
			stored, err := client.Channel(uuid.MustParse(testChannelID)).PostMessage(context.Background(), &mirth.RawMessage{RawData: &data}, nil)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, int64(5), stored.MessageID)
			assert.Equal(t, tc.wantPath, postedTo)
		})
	}
}

func TestChannelService_PostMessage_SurfacesConnectorError(t *testing.T) {
	storedError := "&lt;response&gt;&lt;status&gt;ERROR&lt;/status&gt;&lt;message&gt;Database unavailable&lt;/message&gt;&lt;/response&gt;"

	mux := http.NewServeMux()
	mux.HandleFunc("POST /channels/"+testChannelID+"/messages", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<long>6</long>`))
	})
	mux.HandleFunc("GET /channels/"+testChannelID+"/messages/6", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(storedMessageXML("6", mirth.StatusError, storedError)))
	})
	client := newTestClient(t, mux, "")

	data := "MSH|^~\\&|SEND"
	service := client.Channel(uuid.MustParse(testChannelID))

	_, err := service.PostMessage(context.Background(), &mirth.RawMessage{RawData: &data}, nil)
	require.Error(t, err)
	var postErr *mirth.PostError
	require.ErrorAs(t, err, &postErr)
	assert.Equal(t, "Database unavailable", postErr.Message)

	stored, err := service.PostMessage(context.Background(), &mirth.RawMessage{RawData: &data}, &mirth.PostMessageOptions{SkipErrorCheck: true})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, mirth.StatusError, stored.ConnectorMessages[0].Status)
}

func TestChannelService_PostMessage_NilMessage(t *testing.T) {
	client := newTestClient(t, http.NewServeMux(), "")

	_, err := client.Channel(uuid.MustParse(testChannelID)).PostMessage(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestChannelService_PostMessage_AcceptedWithoutID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /channels/"+testChannelID+"/messages", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, mux, "")

	data := "MSH|^~\\&|SEND"
	stored, err := client.Channel(uuid.MustParse(testChannelID)).PostMessage(context.Background(), &mirth.RawMessage{RawData: &data}, nil)
	require.NoError(t, err)
	assert.Nil(t, stored, "an empty acknowledgement carries no stored message")
}

func TestChannelService_Reprocess(t *testing.T) {
	var reprocessed bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /channels/"+testChannelID+"/messages/12/_reprocess", func(w http.ResponseWriter, r *http.Request) {
		reprocessed = true
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("replace"))
		assert.Equal(t, "false", q.Get("filterDestinations"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /channels/"+testChannelID+"/messages/12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(storedMessageXML("12", mirth.StatusSent, "")))
	})
	client := newTestClient(t, mux, "")

	message, err := client.Channel(uuid.MustParse(testChannelID)).Reprocess(context.Background(), 12, mirth.ReprocessOptions{Replace: true})
	require.NoError(t, err)
	require.True(t, reprocessed)
	require.NotNil(t, message)
	assert.Equal(t, int64(12), message.MessageID)
}
