package web

import (
	"bytes"
	"html/template"

	"github.com/foxseedlab/firassist/internal/language"
	"github.com/gofiber/fiber/v2"
)

type indexPage struct {
	Languages        []language.Language
	DefaultLanguage  string
	SynthesisEnabled bool
	MaxUploadBytes   int
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>FIR Assistant</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
fieldset { margin-bottom: 1rem; }
textarea { width: 100%; min-height: 8rem; }
#reply { border-top: 1px solid #ccc; margin-top: 1rem; padding-top: 1rem; }
.notice { color: #8a4b00; }
.heard { color: #555; font-style: italic; }
</style>
</head>
<body>
<h1>FIR Assistant</h1>
<form id="incident-form">
  <fieldset>
    <label>Language
      <select name="language" id="language">
        {{range .Languages}}<option value="{{.Name}}"{{if eq .Name $.DefaultLanguage}} selected{{end}}>{{.Name}} ({{.NativeName}})</option>{{end}}
      </select>
    </label>
    <label>Input
      <select name="mode" id="mode">
        <option value="text">Type</option>
        <option value="audio">Upload audio</option>
        <option value="live">Speak live</option>
      </select>
    </label>
    {{if .SynthesisEnabled}}<label><input type="checkbox" name="speak" checked> Read the answer aloud</label>{{end}}
  </fieldset>
  <div id="text-input"><textarea name="text" placeholder="Describe the incident"></textarea></div>
  <div id="audio-input" hidden><input type="file" name="file" accept=".wav,.mp3,.ogg,audio/*"> <small>up to {{.MaxUploadBytes}} bytes</small></div>
  <div id="live-input" hidden><button type="button" id="live-toggle">Start listening</button> <span id="live-state"></span></div>
  <button type="submit" id="submit">Submit</button>
  <button type="button" id="reset">New conversation</button>
</form>
<section id="reply"></section>
<script>
const form = document.getElementById('incident-form');
const mode = document.getElementById('mode');
const reply = document.getElementById('reply');
function showMode() {
  document.getElementById('text-input').hidden = mode.value !== 'text';
  document.getElementById('audio-input').hidden = mode.value !== 'audio';
  document.getElementById('live-input').hidden = mode.value !== 'live';
  document.getElementById('submit').hidden = mode.value === 'live';
}
mode.addEventListener('change', showMode);
showMode();
function render(r) {
  const div = document.createElement('div');
  if (r.transcript) { const p = document.createElement('p'); p.className = 'heard'; p.textContent = r.transcript; div.appendChild(p); }
  if (r.reply_html) { const d = document.createElement('div'); d.innerHTML = r.reply_html; div.appendChild(d); }
  (r.notices || []).forEach(n => { const p = document.createElement('p'); p.className = 'notice'; p.textContent = n.message; div.appendChild(p); });
  if (r.audio) { const a = document.createElement('audio'); a.controls = true; a.autoplay = true; a.src = r.audio; div.appendChild(a); }
  reply.prepend(div);
}
form.addEventListener('submit', async (e) => {
  e.preventDefault();
  const res = await fetch('/api/incidents', { method: 'POST', body: new FormData(form) });
  const body = await res.json();
  if (!res.ok) { render({ notices: [{ message: body.error }] }); return; }
  render(body);
});
document.getElementById('reset').addEventListener('click', async () => {
  await fetch('/api/conversation/reset', { method: 'POST' });
  reply.innerHTML = '';
});
let live = null;
document.getElementById('live-toggle').addEventListener('click', async () => {
  const state = document.getElementById('live-state');
  if (live) { live.ws.send('stop'); live.stream.getTracks().forEach(t => t.stop()); live.ctx.close(); live = null; state.textContent = 'stopping'; return; }
  const stream = await navigator.mediaDevices.getUserMedia({ audio: true });
  const ctx = new AudioContext();
  const lang = encodeURIComponent(document.getElementById('language').value);
  const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/listen?language=' + lang + '&rate=' + ctx.sampleRate + '&channels=1');
  ws.binaryType = 'arraybuffer';
  ws.onmessage = (m) => { const ev = JSON.parse(m.data); state.textContent = ev.state || ev.error || ''; if (ev.result) render(ev.result); };
  const src = ctx.createMediaStreamSource(stream);
  const proc = ctx.createScriptProcessor(4096, 1, 1);
  proc.onaudioprocess = (e) => {
    if (ws.readyState !== WebSocket.OPEN) return;
    const f = e.inputBuffer.getChannelData(0);
    const pcm = new Int16Array(f.length);
    for (let i = 0; i < f.length; i++) { const v = Math.max(-1, Math.min(1, f[i])); pcm[i] = v < 0 ? v * 0x8000 : v * 0x7fff; }
    ws.send(pcm.buffer);
  };
  src.connect(proc); proc.connect(ctx.destination);
  live = { ws, stream, ctx };
  state.textContent = 'listening';
});
</script>
</body>
</html>
`))

func (s *Server) renderIndex() ([]byte, error) {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, indexPage{
		Languages:        language.All(),
		DefaultLanguage:  s.cfg.DefaultLanguage.Name,
		SynthesisEnabled: s.cfg.SynthesisEnabled,
		MaxUploadBytes:   s.cfg.MaxUploadBytes,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	body, err := s.renderIndex()
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(body)
}
