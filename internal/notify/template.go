package notify

const alertHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Site.Subject}} – {{.Site.DisplayName}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }
    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }
    .header {
      padding: 20px 24px;
      background: #1f2937;
      color: #ffffff;
    }
    .subject { font-size: 24px; font-weight: 700; text-transform: uppercase; }
    .section { padding: 16px 24px; border-top: 1px solid #e5e7eb; }
    .screen { margin-bottom: 12px; }
    .badge {
      display: inline-block;
      padding: 2px 8px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #16a34a;
      color: #ffffff;
      text-transform: uppercase;
    }
    .badge.soon { background: #f97316; }
    .times { color: #374151; font-size: 14px; }
    .note { color: #6b7280; font-size: 12px; }
    .button {
      display: inline-block;
      padding: 10px 18px;
      background: #dc2626;
      color: #ffffff;
      border-radius: 6px;
      text-decoration: none;
      font-weight: 600;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="subject">{{.Site.Subject}}</div>
      <div>{{.Site.DisplayName}}</div>
    </div>
    <div class="section">
      {{range .Matches}}
      <div class="screen">
        <strong>{{.Target}}</strong>
        <span class="badge{{if ne .Status "OPEN"}} soon{{end}}">{{statusLabel .Status}}</span>
        {{if .Evidence.Showtimes}}<div class="times">{{range $i, $t := .Evidence.Showtimes}}{{if $i}} · {{end}}{{$t}}{{end}}</div>{{end}}
        {{if .Note}}<div class="note">{{.Note}}</div>{{end}}
      </div>
      {{end}}
    </div>
    {{if .Showtimes}}
    <div class="section times">Showtimes: {{range $i, $t := .Showtimes}}{{if $i}}, {{end}}{{$t}}{{end}}</div>
    {{end}}
    <div class="section">
      <a class="button" href="{{.Site.URL}}">Book now</a>
      <div class="note">Detected {{.DetectedAt.Format "02 Jan 2006 3:04 PM MST"}}</div>
    </div>
  </div>
</body>
</html>
`
