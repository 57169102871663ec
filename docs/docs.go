// Package docs registers the OpenAPI document served at /swagger/.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ai/config": {
            "get": {
                "summary": "Get the AI config",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "412": {
                        "description": "not configured"
                    }
                }
            },
            "put": {
                "summary": "Save the AI config",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    }
                }
            },
            "delete": {
                "summary": "Remove the AI config",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ai/validate": {
            "post": {
                "summary": "Test the AI connection",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "502": {
                        "description": "Error"
                    }
                }
            }
        },
        "/ai/generate": {
            "post": {
                "summary": "Generate questions",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "409": {
                        "description": "another AI request is running"
                    },
                    "412": {
                        "description": "not configured"
                    }
                }
            }
        },
        "/ai/explain/{resultID}": {
            "post": {
                "summary": "Explain all mistakes",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "409": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/ai/explain/{resultID}/{index}": {
            "post": {
                "summary": "Explain one question",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "index",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/ai/chat/{resultID}/{index}": {
            "get": {
                "summary": "Get a tutor conversation",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "index",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "post": {
                "summary": "Ask the tutor",
                "tags": [
                    "AI"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "409": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "index",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/import": {
            "post": {
                "summary": "Import sessions",
                "tags": [
                    "Import/Export"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    }
                }
            }
        },
        "/export": {
            "get": {
                "summary": "Export all sessions",
                "tags": [
                    "Import/Export"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/quiz": {
            "post": {
                "summary": "Start an exam",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "422": {
                        "description": "no questions"
                    }
                }
            },
            "get": {
                "summary": "Get the running exam",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "409": {
                        "description": "no exam running"
                    }
                }
            },
            "delete": {
                "summary": "Abandon the running exam",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "409": {
                        "description": "Error"
                    }
                }
            }
        },
        "/quiz/retake/{resultID}": {
            "post": {
                "summary": "Retake an exam",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/quiz/answers/{index}": {
            "put": {
                "summary": "Answer a question",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "409": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "index",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/quiz/submit": {
            "post": {
                "summary": "Submit the running exam",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "409": {
                        "description": "Error"
                    }
                }
            }
        },
        "/quiz/stream": {
            "get": {
                "summary": "Quiz countdown stream",
                "tags": [
                    "Quiz"
                ],
                "responses": {
                    "101": {
                        "description": "OK"
                    }
                }
            }
        },
        "/sessions": {
            "get": {
                "summary": "List sessions",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "summary": "Create a session",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            },
            "delete": {
                "summary": "Clear all data",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/sessions/active": {
            "put": {
                "summary": "Select the active session",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            }
        },
        "/sessions/{sessionID}": {
            "patch": {
                "summary": "Rename a session",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "sessionID",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "delete": {
                "summary": "Delete a session",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "sessionID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/sessions/{sessionID}/favorite": {
            "post": {
                "summary": "Toggle session favorite",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "sessionID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/sessions/{sessionID}/group": {
            "post": {
                "summary": "Move a session into a group",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "sessionID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/sessions/{sessionID}/backup": {
            "get": {
                "summary": "Download a session backup",
                "tags": [
                    "Sessions"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "sessionID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/groups": {
            "post": {
                "summary": "Create a group",
                "tags": [
                    "Groups"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            }
        },
        "/groups/{groupID}": {
            "patch": {
                "summary": "Rename a group",
                "tags": [
                    "Groups"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "groupID",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "delete": {
                "summary": "Delete a group",
                "tags": [
                    "Groups"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "groupID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/groups/{groupID}/favorite": {
            "post": {
                "summary": "Toggle group favorite",
                "tags": [
                    "Groups"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "groupID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/groups/{groupID}/backup": {
            "get": {
                "summary": "Download a group backup",
                "tags": [
                    "Groups"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "groupID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/workspace": {
            "get": {
                "summary": "Get the workspace",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/workspace/input": {
            "put": {
                "summary": "Set the question-bank text",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    }
                }
            }
        },
        "/workspace/config": {
            "put": {
                "summary": "Set the quiz config",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    }
                }
            }
        },
        "/workspace/reset": {
            "post": {
                "summary": "Reset progress and history",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/workspace/history": {
            "get": {
                "summary": "Get exam history",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/workspace/history/{resultID}": {
            "get": {
                "summary": "Review a result",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "patch": {
                "summary": "Update a result",
                "tags": [
                    "Workspace"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "resultID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ExamAI API",
	Description:      "Exam practice backend: question banks, timed quizzes with negative marking, and an AI tutor.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
