package livereload

import (
	"bytes"

	"go.trai.ch/sitepipe/internal/core/domain"
)

// ClientPath serves the browser side of the sideband.
const ClientPath = "/__sitepipe/client.js"

var (
	scriptTag  = []byte(`<script src="` + ClientPath + `"></script>`)
	closingTag = []byte("</body>")
)

// InjectScript inserts the client script tag before the last closing body tag,
// or appends it when the document has none.
func InjectScript(html []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(html), closingTag)
	if i < 0 {
		return append(bytes.Clone(html), scriptTag...)
	}

	out := make([]byte, 0, len(html)+len(scriptTag))
	out = append(out, html[:i]...)
	out = append(out, scriptTag...)
	out = append(out, html[i:]...)
	return out
}

// clientScript reloads the page on "reload" and re-fetches matching
// stylesheets on "inject".
const clientScript = `(function () {
  var source = new EventSource("` + domain.EventsPath + `");
  source.addEventListener("reload", function () { window.location.reload(); });
  source.addEventListener("inject", function (e) {
    var paths = JSON.parse(e.data);
    var stamp = Date.now();
    document.querySelectorAll('link[rel="stylesheet"]').forEach(function (link) {
      var href = link.getAttribute("href").split("?")[0];
      var match = paths.length === 0 || paths.some(function (p) {
        return href === p || href.endsWith("/" + p);
      });
      if (match) { link.setAttribute("href", href + "?v=" + stamp); }
    });
  });
})();
`
