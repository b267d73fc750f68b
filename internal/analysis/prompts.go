package analysis

const scenePrompt = `You break down a single screenplay scene for production.
Reply with one JSON object and nothing else:
{"title": string, "summary": string, "cast": [string], "complexity": "Low"|"Medium"|"High", "time_of_day": "☁️"|"☀️"|"🌤️"|"🌙"}
title: a short, memorable name for the scene.
summary: two or three sentences on what happens.
cast: every character who appears.
complexity: judged from crowd size, stunts and visual effects.
time_of_day: exactly one symbol: ☁️ morning or day, ☀️ afternoon, 🌤️ evening, 🌙 night.`

const scriptPrompt = `You split a screenplay into scenes for production.
Reply with a JSON object {"scenes": [...]} where each element is:
{"scene_number": string, "slugline": string, "body": string,
 "analysis": {"title": string, "summary": string, "cast": [string], "complexity": "Low"|"Medium"|"High", "time_of_day": "☁️"|"☀️"|"🌤️"|"🌙"}}
body is the full scene text, action and dialogue included.
time_of_day is exactly one symbol: ☁️ morning or day, ☀️ afternoon, 🌤️ evening, 🌙 night.`
