package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, false)
	client := env.ts.Client()

	resp, body := doJSON(t, client, http.MethodPost, env.ts.URL+"/api/register", "",
		map[string]string{"username": "alice", "password": "password123"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", resp.StatusCode, body)
	}

	var authResp AuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil || authResp.Token == "" {
		t.Fatalf("bad register response: %s (%v)", body, err)
	}

	resp, _ = doJSON(t, client, http.MethodPost, env.ts.URL+"/api/register", "",
		map[string]string{"username": "alice", "password": "password123"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, client, http.MethodPost, env.ts.URL+"/api/login", "",
		map[string]string{"username": "alice", "password": "password123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, client, http.MethodPost, env.ts.URL+"/api/login", "",
		map[string]string{"username": "alice", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}
}

func TestCreateRoomRequiresStaff(t *testing.T) {
	env := newTestEnv(t, false)
	client := env.ts.Client()

	userToken := env.createUser(t, "alice", false)
	staffToken := env.createUser(t, "root", true)

	resp, _ := doJSON(t, client, http.MethodPost, env.ts.URL+"/api/rooms", userToken,
		CreateRoomRequest{StaffOnly: false})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-staff create status = %d", resp.StatusCode)
	}

	resp, body := doJSON(t, client, http.MethodPost, env.ts.URL+"/api/rooms", staffToken,
		CreateRoomRequest{StaffOnly: true})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("staff create status = %d, body %s", resp.StatusCode, body)
	}

	var room RoomResponse
	if err := json.Unmarshal(body, &room); err != nil {
		t.Fatalf("bad create response: %s (%v)", body, err)
	}
	if room.ID == "" || !room.StaffOnly {
		t.Fatalf("unexpected room: %+v", room)
	}

	resp, _ = doJSON(t, client, http.MethodPost, env.ts.URL+"/api/rooms", "",
		CreateRoomRequest{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create status = %d", resp.StatusCode)
	}
}

func TestListRooms(t *testing.T) {
	env := newTestEnv(t, false)
	client := env.ts.Client()

	env.createRoom(t, false)
	env.createRoom(t, true)
	token := env.createUser(t, "alice", false)

	resp, body := doJSON(t, client, http.MethodGet, env.ts.URL+"/api/rooms", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, body %s", resp.StatusCode, body)
	}

	var rooms []RoomResponse
	if err := json.Unmarshal(body, &rooms); err != nil {
		t.Fatalf("bad list response: %s (%v)", body, err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
}

func TestUpdateRoomStaffOnly(t *testing.T) {
	env := newTestEnv(t, false)
	client := env.ts.Client()

	roomID := env.createRoom(t, false)
	staffToken := env.createUser(t, "root", true)

	on := true
	resp, body := doJSON(t, client, http.MethodPatch, env.ts.URL+"/api/rooms/"+roomID, staffToken,
		UpdateRoomRequest{StaffOnly: &on})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, body %s", resp.StatusCode, body)
	}

	var room RoomResponse
	if err := json.Unmarshal(body, &room); err != nil || !room.StaffOnly {
		t.Fatalf("unexpected update response: %s (%v)", body, err)
	}

	resp, _ = doJSON(t, client, http.MethodPatch, env.ts.URL+"/api/rooms/missing", staffToken,
		UpdateRoomRequest{StaffOnly: &on})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing room update status = %d", resp.StatusCode)
	}
}
