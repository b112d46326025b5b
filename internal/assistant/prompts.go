package assistant

const BRAINSTORM_SYSTEM = "You are a creative brainstorming assistant. Always respond with valid JSON only, no additional text."

const BRAINSTORM_PROMPT = `Brainstorm 5 to 8 short, creative, and distinct ideas or concepts related to: %q.
Also provide a short, logical title for this group of ideas (e.g., "Marketing Ideas", "Project Risks").
Keep ideas concise (under 10 words each).
Return ONLY valid JSON in this format: {"title": "...", "ideas": ["...", "..."]}`

const DIAGRAM_SYSTEM = "You are a diagram generation assistant. Always respond with valid JSON only, no additional text. Use the exact format specified."

const DIAGRAM_PROMPT = `Create a detailed flowchart diagram about %q.

RULES:
1. Provide a "title" for this diagram section (e.g., "Login Process Flow").
2. USE ONLY TWO SHAPE TYPES: "STICKY" and "ARROW".
3. NODES (STICKY):
   - Must have a unique "id" (e.g., "n1", "n2").
   - MUST have a "text" field with descriptive content.
   - Provide "x" and "y" coordinates.
   - Layout: Top-to-Bottom or Left-to-Right flow.
   - Spacing: Keep items at least 250 units apart.
4. EDGES (ARROW):
   - Must have "type": "ARROW".
   - Must have "connectFrom" (id of start node) and "connectTo" (id of end node).
   - Do NOT provide x/y for arrows.

Return ONLY valid JSON in this format: {"title": "...", "elements": [{"type": "STICKY", "id": "...", "text": "...", "x": 0, "y": 0}, ...]}`
