package server

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Live Detection Camera</title>
  <style>
    body { font-family: sans-serif; background: #1e1e1e; color: #ddd; margin: 0; padding: 24px; }
    h1 { font-size: 20px; }
    .feed { border: 1px solid #444; max-width: 100%; }
    .stats { margin-top: 12px; font-family: monospace; white-space: pre; }
    .alert { color: #f90; }
  </style>
</head>
<body>
  <h1>Live Detection Camera</h1>
  <img class="feed" src="/video_feed" alt="live feed">
  <div class="stats" id="stats">loading stats...</div>
  <div class="alert" id="alert"></div>
  <script>
    async function poll() {
      try {
        const res = await fetch('/stats');
        const s = await res.json();
        document.getElementById('stats').textContent =
          'fps: ' + s.fps.toFixed(1) + '\n' +
          'counts: ' + JSON.stringify(s.counts) + '\n' +
          'updated: ' + new Date(s.last_update_ts * 1000).toLocaleTimeString();
        document.getElementById('alert').textContent = s.alert.message;
      } catch (e) {
        document.getElementById('stats').textContent = 'stats unavailable';
      }
    }
    poll();
    setInterval(poll, 1000);
  </script>
</body>
</html>
`
