package main

import "html/template"

// tpl is the map page. It holds no map state of its own: it opens a session on
// the websocket, executes the commands it receives with Leaflet and reports
// clicks, camera moves and browser API results back as events.
var tpl = template.Must(template.New("page").Parse(`
<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <title>{{.Text.Title}}</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="https://unpkg.com/leaflet/dist/leaflet.css" />
    <script src="https://unpkg.com/leaflet/dist/leaflet.js"></script>
    <style>
        * { box-sizing: border-box; }
        html, body {
            margin: 0;
            height: 100%;
        }
        body {
            font-family: Arial, sans-serif;
            transition: background-color 0.3s, color 0.3s;
        }
        body.light {
            background-color: #f0f0f0;
            color: #000;
        }
        body.dark {
            background-color: #333;
            color: #fff;
        }
        body.dark input, body.dark button, body.dark .panel {
            background-color: #555;
            color: #fff;
            border-color: #777;
        }
        body.dark button:hover {
            background-color: #666;
        }
        #map-container {
            position: relative;
            height: 100vh;
        }
        #map {
            height: 100%;
        }
        .toolbar {
            position: absolute;
            top: 10px;
            left: 10px;
            right: 10px;
            z-index: 1000;
            display: flex;
            gap: 6px;
            flex-wrap: wrap;
            pointer-events: none;
        }
        .toolbar > * { pointer-events: auto; }
        .toolbar .spacer { flex: 1; pointer-events: none; }
        button {
            padding: 8px;
            cursor: pointer;
            border: 1px solid #ccc;
            border-radius: 4px;
            background: #fff;
            transition: background-color 0.3s, color 0.3s, border 0.3s;
        }
        button.active {
            background: #2563EB;
            color: #fff;
        }
        input {
            padding: 8px;
            width: 100%;
            transition: background-color 0.3s, color 0.3s, border 0.3s;
        }
        .chips {
            position: absolute;
            top: 52px;
            left: 10px;
            z-index: 1000;
            display: flex;
            gap: 4px;
            flex-wrap: wrap;
        }
        .chip {
            border-radius: 14px;
            padding: 4px 10px;
            opacity: 0.45;
        }
        .chip.on { opacity: 1; color: #fff; }
        .panel {
            position: absolute;
            top: 96px;
            bottom: 10px;
            width: 340px;
            z-index: 1000;
            overflow-y: auto;
            background: #fff;
            border: 1px solid #ccc;
            border-radius: 6px;
            padding: 10px;
            display: none;
        }
        .panel.open { display: block; }
        .panel.collapsed { bottom: auto; overflow: hidden; }
        .panel.collapsed .body { display: none; }
        #search-panel { left: 10px; }
        #detail-panel { right: 10px; }
        .panel header {
            display: flex;
            gap: 4px;
            align-items: center;
        }
        .panel header h3 { flex: 1; margin: 0; font-size: 16px; }
        .result, .related {
            padding: 6px;
            cursor: pointer;
            border-bottom: 1px solid #eee;
        }
        .result:hover, .related:hover { background: rgba(37, 99, 235, 0.1); }
        .muted { opacity: 0.7; font-size: 12px; }
        .tabs { display: flex; gap: 4px; margin: 8px 0; }
        .media img { width: 100%; margin-bottom: 6px; border-radius: 4px; }
        .pin {
            border-radius: 50%;
            border: 2px solid #fff;
            box-shadow: 0 1px 4px rgba(0, 0, 0, 0.4);
            display: flex;
            align-items: center;
            justify-content: center;
            width: 32px;
            height: 32px;
            font-size: 16px;
        }
        .pin.selected { outline: 3px solid #FACC15; }
        .badge {
            border-radius: 50%;
            background: rgba(37, 99, 235, 0.85);
            color: #fff;
            font-weight: bold;
            display: flex;
            align-items: center;
            justify-content: center;
            border: 3px solid rgba(255, 255, 255, 0.7);
        }
        .badge.medium { background: rgba(217, 119, 6, 0.85); }
        .badge.large { background: rgba(220, 38, 38, 0.85); }
        #toast {
            position: absolute;
            bottom: 20px;
            left: 50%;
            transform: translateX(-50%);
            z-index: 1100;
            background: #111;
            color: #fff;
            padding: 10px 14px;
            border-radius: 6px;
            display: none;
        }
        #toast.error { background: #B91C1C; }
    </style>
</head>
<body class="{{.Theme}}">
    <div id="map-container">
        <div id="map"></div>

        <div class="toolbar">
            <button id="search-toggle">🔍 {{.Text.Search}}</button>
            <button id="zoom-in" title="{{.Text.ZoomIn}}">+</button>
            <button id="zoom-out" title="{{.Text.ZoomOut}}">−</button>
            <span class="spacer"></span>
            <button id="locate">📍 {{.Text.Locate}}</button>
            <button id="satellite">🛰️ {{.Text.Satellite}}</button>
            <button id="fullscreen">⛶ {{.Text.Fullscreen}}</button>
            <button id="theme-toggle">{{.Text.DarkMode}}</button>
            <button id="language">{{.Text.Language}}</button>
        </div>

        <div class="chips" id="chips" aria-label="{{.Text.Categories}}"></div>

        <section class="panel" id="search-panel">
            <header>
                <h3>{{.Text.Search}}</h3>
                <button id="search-collapse">{{.Text.Collapse}}</button>
                <button id="search-close">✕</button>
            </header>
            <div class="body">
                <input id="search-input" type="search" placeholder="{{.Text.SearchHint}}" autocomplete="off">
                <div id="search-results"></div>
            </div>
        </section>

        <section class="panel" id="detail-panel">
            <header>
                <h3 id="detail-title"></h3>
                <button id="detail-collapse">{{.Text.Collapse}}</button>
                <button id="detail-close">✕</button>
            </header>
            <div class="body">
                <div class="muted" id="detail-category"></div>
                <div class="muted" id="detail-address"></div>
                <div class="muted" id="detail-distance"></div>
                <div class="tabs">
                    <button data-tab="info">{{.Text.Info}}</button>
                    <button data-tab="media">{{.Text.Media}}</button>
                    <button data-tab="related">{{.Text.Related}}</button>
                </div>
                <div id="detail-body"></div>
            </div>
        </section>

        <div id="toast"></div>
    </div>

    <script>
        const boot = {{.Boot}};
        const text = boot.text;

        let socket = null;
        let map = null;
        let state = null;
        let selectedId = null;
        const layers = {};
        const clusterGroups = {};
        let spider = null;
        let toastTimer = null;

        function el(tag, attrs, children) {
            const node = document.createElement(tag);
            Object.keys(attrs || {}).forEach(function(key) {
                if (key === 'text') {
                    node.textContent = attrs[key];
                } else if (key === 'onclick') {
                    node.addEventListener('click', attrs[key]);
                } else {
                    node.setAttribute(key, attrs[key]);
                }
            });
            (children || []).forEach(function(child) { node.appendChild(child); });
            return node;
        }

        function send(event) {
            if (socket && socket.readyState === WebSocket.OPEN) {
                socket.send(JSON.stringify(event));
            }
        }

        function containerSize() {
            const c = document.getElementById('map-container');
            return { width: c.clientWidth, height: c.clientHeight };
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const params = new URLSearchParams({ lang: boot.locale, theme: boot.theme });
            socket = new WebSocket(proto + location.host + boot.socket + '?' + params.toString());
            socket.onmessage = function(msg) { execute(JSON.parse(msg.data)); };
            socket.onopen = function() { send({ type: 'resize', container: containerSize() }); };
            socket.onclose = function() {
                toast({ level: 'error', message: text.reconnect });
                setTimeout(connect, 3000);
            };
        }

        // Leaflet objects

        function pinIcon(marker, selected) {
            const html = '<div class="pin' + (selected ? ' selected' : '') + '" style="background:' +
                marker.color + '">' + marker.icon + '</div>';
            return L.divIcon({ html: html, className: '', iconSize: [32, 32], iconAnchor: [16, 16] });
        }

        function badgeIcon(feature) {
            const b = feature.badge;
            const html = '<div class="badge ' + b.tier + '" style="width:' + b.size + 'px;height:' +
                b.size + 'px;font-size:' + b.fontSize + 'px">' + feature.count + '</div>';
            return L.divIcon({ html: html, className: '', iconSize: [b.size, b.size] });
        }

        function drawFeatures(group, view) {
            group.clearLayers();
            clearSpider();
            view.features.forEach(function(f) {
                const at = [f.position.lat, f.position.lng];
                if (f.kind === 'cluster') {
                    L.marker(at, { icon: badgeIcon(f) })
                        .on('click', function() { send({ type: 'cluster.click', clusterId: f.clusterId }); })
                        .addTo(group);
                    return;
                }
                const name = boot.locale === 'en' ? f.name.en : f.name.id;
                const m = L.marker(at, { icon: pinIcon(f.marker, f.id === selectedId), title: name })
                    .on('click', function() { send({ type: 'marker.click', id: f.id }); });
                m.featureId = f.id;
                m.featureMarker = f.marker;
                m.addTo(group);
            });
        }

        function clearSpider() {
            if (spider) {
                spider.remove();
                spider = null;
            }
        }

        function spiderfy(data) {
            clearSpider();
            spider = L.layerGroup().addTo(map);
            const center = [data.center.lat, data.center.lng];
            data.legs.forEach(function(leg) {
                const at = [leg.position.lat, leg.position.lng];
                L.polyline([center, at], { color: '#555', weight: 1.5 }).addTo(spider);
                L.marker(at, { icon: pinIcon(leg.marker, leg.id === selectedId), zIndexOffset: 1000 })
                    .on('click', function() { send({ type: 'marker.click', id: leg.id }); })
                    .addTo(spider);
            });
        }

        function buildLayer(id, data) {
            const v = data.view;
            switch (data.kind) {
            case 'tile':
                return L.tileLayer(v.url, {
                    attribution: v.attribution,
                    maxNativeZoom: v.maxNativeZoom,
                    maxZoom: map.getMaxZoom()
                });
            case 'cluster': {
                const group = L.layerGroup();
                clusterGroups[id] = group;
                drawFeatures(group, v);
                return group;
            }
            case 'user-marker':
                return L.circleMarker([v.position.lat, v.position.lng], {
                    radius: 8, color: '#fff', weight: 2, fillColor: '#3B82F6', fillOpacity: 1
                });
            case 'accuracy-circle':
                return L.circle([v.center.lat, v.center.lng], {
                    radius: v.radius, color: v.color, fillColor: v.color,
                    fillOpacity: v.fillOpacity, weight: 1
                });
            }
            console.warn('unknown layer kind', data.kind);
            return null;
        }

        function removeLayer(id) {
            if (layers[id]) {
                layers[id].remove();
                delete layers[id];
            }
            if (clusterGroups[id]) {
                delete clusterGroups[id];
                clearSpider();
            }
        }

        function addLayer(id, data) {
            const layer = buildLayer(id, data);
            if (layer) {
                layers[id] = layer.addTo(map);
            }
        }

        function move(kind, d) {
            const at = [d.center.lat, d.center.lng];
            const opts = { duration: d.duration || 0, animate: !!d.duration };
            switch (kind) {
            case 'camera.fly':
                map.flyTo(at, d.zoom, opts);
                break;
            case 'camera.pan':
                map.panTo(at, opts);
                break;
            case 'camera.zoom':
                map.setZoom(d.zoom);
                break;
            case 'camera.fit':
                map.flyTo(at, d.zoom, opts);
                break;
            }
        }

        function initMap(o) {
            if (map) {
                map.remove();
            }
            map = L.map('map', {
                center: [o.center.lat, o.center.lng],
                zoom: o.zoom,
                minZoom: o.minZoom,
                maxZoom: o.maxZoom,
                maxBounds: [
                    [o.maxBounds.southWest.lat, o.maxBounds.southWest.lng],
                    [o.maxBounds.northEast.lat, o.maxBounds.northEast.lng]
                ],
                maxBoundsViscosity: o.maxBoundsViscosity,
                zoomControl: o.zoomControl
            });
            map.on('moveend', function() {
                const c = map.getCenter();
                send({
                    type: 'view.change',
                    center: { lat: c.lat, lng: c.lng },
                    zoom: map.getZoom()
                });
            });
        }

        // Browser APIs

        function requestFullscreen() {
            const c = document.getElementById('map-container');
            if (!c.requestFullscreen) {
                send({ type: 'fullscreen.result', error: 'NotSupportedError' });
                return;
            }
            c.requestFullscreen()
                .then(function() { send({ type: 'fullscreen.result' }); })
                .catch(function(err) { send({ type: 'fullscreen.result', error: err.name || String(err) }); });
        }

        function exitFullscreen() {
            if (document.fullscreenElement) {
                document.exitFullscreen().catch(function() {});
            }
        }

        document.addEventListener('fullscreenchange', function() {
            send({ type: 'fullscreen.change', active: !!document.fullscreenElement, container: containerSize() });
        });

        window.addEventListener('resize', function() {
            send({ type: 'resize', container: containerSize() });
        });

        function geolocate(opts) {
            if (!navigator.geolocation) {
                send({ type: 'geolocate.error', code: 0, message: 'unsupported' });
                return;
            }
            navigator.geolocation.getCurrentPosition(function(pos) {
                send({
                    type: 'geolocate.result',
                    position: { lat: pos.coords.latitude, lng: pos.coords.longitude, accuracy: pos.coords.accuracy }
                });
            }, function(err) {
                send({ type: 'geolocate.error', code: err.code, message: err.message });
            }, opts);
        }

        function toast(n) {
            const t = document.getElementById('toast');
            t.textContent = n.message;
            t.className = n.level === 'error' ? 'error' : '';
            t.style.display = 'block';
            clearTimeout(toastTimer);
            toastTimer = setTimeout(function() { t.style.display = 'none'; }, 4000);
        }

        // Commands from the session

        function execute(cmd) {
            const d = cmd.data;
            switch (cmd.type) {
            case 'hello':
                break;
            case 'map.init':
                initMap(d);
                break;
            case 'map.destroy':
                if (map) {
                    map.remove();
                    map = null;
                }
                break;
            case 'layer.add':
                addLayer(cmd.layer, d);
                break;
            case 'layer.remove':
                removeLayer(cmd.layer);
                break;
            case 'layer.replace':
                removeLayer(cmd.replaces);
                addLayer(cmd.layer, d);
                break;
            case 'cluster.render':
                if (clusterGroups[cmd.layer]) {
                    drawFeatures(clusterGroups[cmd.layer], d);
                }
                break;
            case 'cluster.spiderfy':
                spiderfy(d);
                break;
            case 'camera.fly':
            case 'camera.pan':
            case 'camera.zoom':
            case 'camera.fit':
                move(cmd.type, d);
                break;
            case 'size.invalidate':
                if (map) {
                    map.invalidateSize();
                }
                break;
            case 'fullscreen.request':
                requestFullscreen();
                break;
            case 'fullscreen.exit':
                exitFullscreen();
                break;
            case 'geolocate':
                geolocate(d);
                break;
            case 'notify':
                toast(d);
                break;
            case 'selection':
                selectedId = d.id;
                highlight();
                break;
            case 'state':
                render(d);
                break;
            case 'error':
                console.warn('event rejected', d);
                break;
            default:
                console.warn('unknown command', cmd.type);
            }
        }

        function highlight() {
            Object.keys(clusterGroups).forEach(function(id) {
                clusterGroups[id].eachLayer(function(m) {
                    if (m.featureId) {
                        m.setIcon(pinIcon(m.featureMarker, m.featureId === selectedId));
                    }
                });
            });
        }

        // Controls rendered from the state snapshot

        function render(s) {
            state = s;
            document.body.className = s.theme;
            document.getElementById('theme-toggle').textContent = s.theme === 'dark' ? text.lightMode : text.darkMode;
            document.getElementById('satellite').classList.toggle('active', s.satellite);
            document.getElementById('fullscreen').classList.toggle('active', s.fullscreen);
            renderChips(s);
            renderSearch(s);
            renderDetail(s);
        }

        function renderChips(s) {
            const chips = document.getElementById('chips');
            chips.replaceChildren();
            boot.categories.forEach(function(c) {
                const on = s.activeCategories.indexOf(c.id) >= 0;
                const chip = el('button', {
                    'class': 'chip' + (on ? ' on' : ''),
                    style: on ? 'background:' + c.color : '',
                    text: c.icon + ' ' + c.label + ' (' + c.count + ')',
                    onclick: function() { send({ type: 'category.toggle', category: c.id }); }
                });
                chips.appendChild(chip);
            });
        }

        function renderSearch(s) {
            const panel = document.getElementById('search-panel');
            panel.classList.toggle('open', s.searchOpen);
            panel.classList.toggle('collapsed', s.searchCollapsed);
            document.getElementById('search-collapse').textContent = s.searchCollapsed ? text.expand : text.collapse;
            const input = document.getElementById('search-input');
            if (document.activeElement !== input) {
                input.value = s.query;
            }
            const list = document.getElementById('search-results');
            list.replaceChildren();
            if (s.query.trim() !== '' && s.results.length === 0) {
                list.appendChild(el('p', { 'class': 'muted', text: text.noResults }));
            }
            s.results.forEach(function(r) {
                list.appendChild(el('div', {
                    'class': 'result',
                    onclick: function() { send({ type: 'search.choose', id: r.id }); }
                }, [
                    el('div', { text: r.icon + ' ' + r.name }),
                    el('div', { 'class': 'muted', text: r.address })
                ]));
            });
        }

        function renderDetail(s) {
            const panel = document.getElementById('detail-panel');
            const d = s.detail;
            panel.classList.toggle('open', !!(d && d.open));
            if (!d) {
                return;
            }
            panel.classList.toggle('collapsed', d.collapsed);
            document.getElementById('detail-collapse').textContent = d.collapsed ? text.expand : text.collapse;
            document.getElementById('detail-title').textContent = d.icon + ' ' + d.name;
            const category = document.getElementById('detail-category');
            category.textContent = d.categoryLabel;
            category.style.color = d.color;
            document.getElementById('detail-address').textContent = d.address;
            document.getElementById('detail-distance').textContent = s.distanceMeters === undefined ? '' :
                text.distance + ': ' + (s.distanceMeters / 1000).toFixed(1) + ' km';

            document.querySelectorAll('#detail-panel .tabs button').forEach(function(b) {
                b.classList.toggle('active', b.dataset.tab === d.tab);
            });

            const body = document.getElementById('detail-body');
            body.replaceChildren();
            if (d.tab === 'info') {
                body.appendChild(el('p', { text: d.description }));
                d.info.forEach(function(section) {
                    body.appendChild(el('h4', { text: section.title }));
                    body.appendChild(el('ul', {}, section.lines.map(function(line) {
                        return el('li', { text: line });
                    })));
                });
            } else if (d.tab === 'media') {
                if (d.media.images.length === 0) {
                    body.appendChild(el('p', { 'class': 'muted', text: d.media.empty }));
                }
                body.appendChild(el('div', { 'class': 'media' }, d.media.images.map(function(src) {
                    return el('img', { src: src, alt: d.name, loading: 'lazy' });
                })));
            } else {
                if (d.related.length === 0) {
                    body.appendChild(el('p', { 'class': 'muted', text: text.noneRelated }));
                }
                d.related.forEach(function(r) {
                    body.appendChild(el('div', {
                        'class': 'related',
                        onclick: function() { send({ type: 'related.choose', id: r.id }); }
                    }, [
                        el('div', { text: r.name }),
                        el('div', { 'class': 'muted', text: r.address })
                    ]));
                });
            }
        }

        // Control wiring

        document.getElementById('search-toggle').onclick = function() {
            send({ type: state && state.searchOpen ? 'search.close' : 'search.open' });
        };
        document.getElementById('search-close').onclick = function() { send({ type: 'search.close' }); };
        document.getElementById('search-collapse').onclick = function() {
            send({ type: 'search.collapse', collapsed: !(state && state.searchCollapsed) });
        };
        let searchTimer = null;
        document.getElementById('search-input').addEventListener('input', function(e) {
            clearTimeout(searchTimer);
            const q = e.target.value;
            searchTimer = setTimeout(function() { send({ type: 'search.query', query: q }); }, 150);
        });

        document.getElementById('detail-close').onclick = function() { send({ type: 'detail.close' }); };
        document.getElementById('detail-collapse').onclick = function() {
            const d = state && state.detail;
            send({ type: 'detail.collapse', collapsed: !(d && d.collapsed) });
        };
        document.querySelectorAll('#detail-panel .tabs button').forEach(function(b) {
            b.onclick = function() { send({ type: 'detail.tab', tab: b.dataset.tab }); };
        });

        document.getElementById('zoom-in').onclick = function() { send({ type: 'zoom.in' }); };
        document.getElementById('zoom-out').onclick = function() { send({ type: 'zoom.out' }); };
        document.getElementById('locate').onclick = function() { send({ type: 'geolocate' }); };
        document.getElementById('satellite').onclick = function() { send({ type: 'satellite.toggle' }); };
        document.getElementById('fullscreen').onclick = function() { send({ type: 'fullscreen.toggle' }); };
        document.getElementById('theme-toggle').onclick = function() {
            send({ type: 'theme.set', theme: state && state.theme === 'dark' ? 'light' : 'dark' });
        };
        document.getElementById('language').onclick = function() {
            const params = new URLSearchParams(location.search);
            params.set('lang', boot.locale === 'en' ? 'id' : 'en');
            if (state) {
                params.set('theme', state.theme);
            }
            location.search = params.toString();
        };

        connect();
    </script>
</body>
</html>
`))
