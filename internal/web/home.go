package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Home renders the lobby: create a room, join one by code, or pick one of
// the live rooms.
func Home(rooms []RoomSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, homeHead); err != nil {
			return err
		}
		if err := ActiveRoomsList(rooms).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, homeTail)
		return err
	})
}

// ActiveRoomsList renders the room list fragment on its own.
func ActiveRoomsList(rooms []RoomSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(rooms) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No rooms yet. Create one above.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<ul class="rooms">`); err != nil {
			return err
		}
		for _, room := range rooms {
			line := `<li data-room="` + templ.EscapeString(room.ID) + `"><strong>` +
				templ.EscapeString(room.ID) + `</strong> <span>` +
				templ.EscapeString(roomStatusLabel(room)) + `</span> <span>` +
				itoa(room.Players) + `/` + itoa(room.Max) + ` players</span></li>`
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

const homeHead = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Fill the Blank</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Fill the Blank</span>
        <h1>One prompt. Your worst card. A judge who decides.</h1>
      </header>

      <section class="panel">
        <h2>Create a room</h2>
        <form id="createForm">
          <input name="handle" placeholder="Your name" autocomplete="name" required/>
          <button type="submit" class="primary">Create room</button>
        </form>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Join a room</h2>
        <form id="joinForm">
          <input name="code" placeholder="Room code" autocomplete="off" required/>
          <input name="handle" placeholder="Your name" autocomplete="name" required/>
          <button type="submit" class="secondary">Join room</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Live rooms</h2>
`

const homeTail = `
      </section>
    </main>

    <script>
      const playerID = localStorage.getItem("ftb_player") || crypto.randomUUID();
      localStorage.setItem("ftb_player", playerID);

      async function post(url, body) {
        const res = await fetch(url, {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(body)
        });
        const data = await res.json();
        return { ok: res.ok, data };
      }

      document.getElementById("createForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        const out = document.getElementById("createResult");
        const handle = event.target.elements.handle.value.trim();
        const { ok, data } = await post("/api/rooms", { player_id: playerID, handle });
        out.textContent = ok ? "Room created. Code: " + data.room_id : (data.message || "Failed to create room.");
      });

      document.getElementById("joinForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        const out = document.getElementById("joinResult");
        const code = event.target.elements.code.value.trim().toUpperCase();
        const handle = event.target.elements.handle.value.trim();
        const { ok, data } = await post("/api/rooms/" + encodeURIComponent(code) + "/join", { player_id: playerID, handle });
        out.textContent = ok ? "Joined room " + code + "." : (data.message || "Failed to join room.");
      });
    </script>
  </body>
</html>
`
